package inkwell

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	maxImageWidth = 1600
	jpegQuality   = 80
	maxUploadSize = 5 << 20 // 5MB
	uploadsSubdir = "uploads"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// processImage decodes an image from src, resizes it to maxImageWidth if
// wider, and encodes it as JPEG.
func processImage(src io.Reader, originalName string) (string, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return "", nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", nil, fmt.Errorf("encode jpeg: %w", err)
	}

	ext := filepath.Ext(originalName)
	filename := Slugify(strings.TrimSuffix(originalName, ext)) + ".jpg"
	return filename, buf.Bytes(), nil
}

// ensureUniqueFilename appends a counter until the name is free in the
// uploads directory.
func (a *App) ensureUniqueFilename(filename string) string {
	dir := filepath.Join(a.staticDir, uploadsSubdir)
	base := strings.TrimSuffix(filename, ".jpg")
	candidate := filename
	counter := 1
	for {
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		counter++
		candidate = fmt.Sprintf("%s-%d.jpg", base, counter)
	}
}

// handleImageUpload accepts a cover-image upload from an authenticated
// user, processes it, and returns the stored URL with the CDN base already
// stripped, ready to persist on a post.
func (a *App) handleImageUpload(c echo.Context) error {
	if CurrentUserID(c) == "" {
		return c.String(http.StatusUnauthorized, "Sign in to upload images")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return c.String(http.StatusBadRequest, "No image file provided")
	}
	if file.Size > maxUploadSize {
		return c.String(http.StatusBadRequest, "File exceeds 5MB limit")
	}
	if contentType := file.Header.Get("Content-Type"); !allowedImageTypes[contentType] {
		return c.String(http.StatusBadRequest, "Invalid file type")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	filename, data, err := processImage(src, file.Filename)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid image: "+err.Error())
	}
	filename = a.ensureUniqueFilename(filename)

	dir := filepath.Join(a.staticDir, uploadsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return upstreamErr("create uploads dir", err)
	}
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o644); err != nil {
		return upstreamErr("write image", err)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"url": StripCDNBase("/public/" + uploadsSubdir + "/" + filename),
	})
}
