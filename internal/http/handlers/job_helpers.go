package handlers

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-watermark/internal/models"
)

var (
	errPathNotAllowed = errors.New("path outside allowed roots")
	errHostNotAllowed = errors.New("watermark host not allowed")
)

// === RESPONSE HANDLING ===

func (h *JobHandler) respondError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, models.APIResponse{
		Success: false,
		Error:   message,
	})
}

// === UTILITY METHODS ===

func (h *JobHandler) calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		if status != "healthy" && status != "disabled" {
			return "unhealthy"
		}
	}
	return "healthy"
}

// === FILE SYSTEM CHECKS ===

// checkDirectories confines every path of spec to the allowed roots and the
// watermark URL to the allowed hosts. Nothing is allowed when none are set.
func (h *JobHandler) checkDirectories(spec models.JobSpec) error {
	roots := h.config.Watermark.AllowedRoots
	for _, dir := range []string{spec.InputDir, spec.OutputDir, spec.WatermarkImagePath} {
		if dir == "" {
			continue
		}
		if !withinRoots(dir, roots) {
			return fmt.Errorf("%w: %s", errPathNotAllowed, dir)
		}
	}

	if spec.WatermarkImagePath == "" && spec.WatermarkImageURL != "" {
		if !allowedHost(spec.WatermarkImageURL, h.config.Watermark.AllowedAssetHosts) {
			return fmt.Errorf("%w: %s", errHostNotAllowed, spec.WatermarkImageURL)
		}
	}

	info, err := os.Stat(spec.InputDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("input directory not found: %s", spec.InputDir)
	}
	return nil
}

func withinRoots(path string, roots []string) bool {
	resolved, err := resolvePath(path)
	if err != nil {
		return false
	}
	for _, root := range roots {
		rootResolved, err := resolvePath(root)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(rootResolved, resolved)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// resolvePath returns the absolute form of path with symlinks evaluated. The
// part of path that does not exist yet is appended unchanged.
func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	var missing []string
	for dir := abs; ; {
		resolved, err := filepath.EvalSymlinks(dir)
		if err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, missing[i])
			}
			return resolved, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", err
		}
		missing = append(missing, filepath.Base(dir))
		dir = parent
	}
}

func allowedHost(rawURL string, hosts []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	for _, host := range hosts {
		if strings.EqualFold(u.Hostname(), host) {
			return true
		}
	}
	return false
}

// prepareOutputDir creates the output directory; the engine never does.
func prepareOutputDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
