package models

// AnnotationRequest is the structured form of a caption command's
// arguments. Color, Size and Position always hold canonical vocabulary
// names; Stroke is empty when the user did not ask for an explicit
// stroke color (auto-selection happens downstream).
type AnnotationRequest struct {
	Text     string
	Color    string
	Size     string
	Position string
	Stroke   string
}

// ImageAsset holds annotated image bytes together with the format
// detected from the decoded header.
type ImageAsset struct {
	Data   []byte
	Format string
}

// Ext returns the file extension for the asset's format.
func (a *ImageAsset) Ext() string {
	switch a.Format {
	case "jpeg", "jpg":
		return "jpg"
	case "gif":
		return "gif"
	default:
		return "png"
	}
}
