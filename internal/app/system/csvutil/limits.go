// internal/app/system/csvutil/limits.go
package csvutil

// Upload size and row limits for voter CSV imports.
const (
	MaxUploadSize = 5 << 20 // 5 MB
	MaxRows       = 20000
)

// MultipartField is the form field carrying the uploaded file.
const MultipartField = "file"
