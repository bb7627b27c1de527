package entity

// SupportedImageTypes and SupportedVideoTypes form the upload whitelist.
// Anything outside it is rejected with a ValidationError.
var (
	SupportedImageTypes = []string{
		"image/jpeg",
		"image/png",
		"image/bmp",
		"image/gif",
		"image/heic",
		"image/webp",
	}
	SupportedVideoTypes = []string{
		"video/mp4",
		"video/x-msvideo",
	}
)

// SupportedFileType reports whether contentType is in the upload whitelist.
func SupportedFileType(contentType string) bool {
	for _, t := range SupportedImageTypes {
		if t == contentType {
			return true
		}
	}
	for _, t := range SupportedVideoTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

// VideoFileType reports whether contentType is a whitelisted video type.
func VideoFileType(contentType string) bool {
	for _, t := range SupportedVideoTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

// UploadRecord is one entry of the upload log. Records are created once per
// unique content hash and immutable afterwards.
type UploadRecord struct {
	OriginalFilename string `json:"original_filename"`
	FileType         string `json:"file_type"`
	ContentHash      string `json:"content_hash"`
	StoredFilename   string `json:"stored_filename"`
}
