package backup

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kipubank/kipu-atm/internal/logger"
)

const backupsDir = "backups"

// CreateBackup zips the receipt journal and the logs of dataDir into backupDir,
// which defaults to dataDir/backups. It returns the archive path.
func CreateBackup(dataDir, backupDir string) (string, error) {
	if _, err := os.Stat(dataDir); err != nil {
		return "", fmt.Errorf("data directory not available: %w", err)
	}

	if backupDir == "" {
		backupDir = filepath.Join(dataDir, backupsDir)
	}
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	backupFile := filepath.Join(backupDir, fmt.Sprintf("kipu-atm_backup_%s.zip", timestamp))

	zipFile, err := os.Create(backupFile)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}
	defer zipFile.Close()

	zipWriter := zip.NewWriter(zipFile)

	err = filepath.Walk(dataDir, func(path string, info os.FileInfo, err error) error {
		return addToZip(path, info, err, dataDir, zipWriter)
	})
	if err != nil {
		zipWriter.Close()
		return "", fmt.Errorf("failed to create backup: %w", err)
	}

	if err := zipWriter.Close(); err != nil {
		return "", fmt.Errorf("failed to finish backup: %w", err)
	}

	logger.Info("Backup created successfully: %s", backupFile)
	return backupFile, nil
}

func addToZip(path string, info os.FileInfo, err error, dataDir string, zipWriter *zip.Writer) error {
	if err != nil {
		return err
	}

	if path == dataDir {
		return nil
	}

	relPath, err := filepath.Rel(dataDir, path)
	if err != nil {
		return fmt.Errorf("failed to get relative path: %w", err)
	}

	if !shouldInclude(relPath, info.IsDir()) {
		if info.IsDir() {
			logger.Debug("Skipping directory: %s", relPath)
			return filepath.SkipDir
		}
		logger.Debug("Skipping file: %s", relPath)
		return nil
	}

	if info.IsDir() {
		_, err = zipWriter.Create(filepath.ToSlash(relPath) + "/")
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to create file header: %w", err)
	}
	header.Name = filepath.ToSlash(relPath)
	header.Method = zip.Deflate

	writer, err := zipWriter.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create file in zip: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(writer, file); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	logger.Debug("Added file to backup: %s", relPath)
	return nil
}

// shouldInclude keeps the journal and the log files. Earlier backups and
// anything else that lands in the data directory stay out.
func shouldInclude(relPath string, isDir bool) bool {
	components := strings.Split(relPath, string(filepath.Separator))

	switch components[0] {
	case "receipts.json":
		return !isDir && len(components) == 1
	case "logs":
		if len(components) == 1 {
			return isDir
		}
		return !isDir && len(components) == 2 && strings.HasSuffix(relPath, ".log")
	default:
		return false
	}
}
