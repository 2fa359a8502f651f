package asset_shrinker

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// copyFile copies the contents, permissions and modification time.
func copyFile(inputPath string, outputPath string) error {
	inputFile, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("Copy failed, could not open input file: %w", err)
	}
	defer inputFile.Close()
	info, err := inputFile.Stat()
	if err != nil {
		return fmt.Errorf("Copy failed, could not stat input file: %w", err)
	}

	outFile, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("Copy failed, could not create output file: %w", err)
	}
	if _, err = io.Copy(outFile, inputFile); err != nil {
		_ = outFile.Close()
		return fmt.Errorf("Copy failed: %w", err)
	}
	if err = outFile.Close(); err != nil {
		return fmt.Errorf("Copy failed, could not close output file: %w", err)
	}
	_ = os.Chmod(outputPath, info.Mode().Perm())
	return os.Chtimes(outputPath, info.ModTime(), info.ModTime())
}

// moveFile renames, falling back to copy and delete across devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// backupFile copies path to path+suffix unless that backup already exists.
// An existing backup is never overwritten, so it always holds the original.
func backupFile(path, suffix string) (backupPath string, created bool, err error) {
	backupPath = path + suffix
	_, err = os.Stat(backupPath)
	if err == nil {
		return backupPath, false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return backupPath, false, fmt.Errorf("could not check backup %s: %w", backupPath, err)
	}
	if err = copyFile(path, backupPath); err != nil {
		return backupPath, false, fmt.Errorf("could not back up %s: %w", path, err)
	}
	return backupPath, true, nil
}

// writeOutput replaces path with data through a temporary sibling file.
func writeOutput(path string, data []byte) error {
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("could not write temporary file: %w", err)
	}
	if err := moveFile(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("could not move output into place: %w", err)
	}
	return nil
}
