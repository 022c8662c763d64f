package transfer

// UploadFile carries one image through a publish attempt.
type UploadFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// UploadedAsset is the platform-assigned handle for one uploaded image.
// It lives only for the duration of a single publish call.
type UploadedAsset struct {
	Asset       string
	Description string
	Status      string
}

type PublishResult struct {
	Success     bool   `json:"success"`
	PostID      string `json:"post_id,omitempty"`
	ErrorDetail string `json:"error_detail,omitempty"`
	MediaCount  int    `json:"media_count"`
}

type GeneratedPostResult struct {
	PostID        int64  `json:"post_id"`
	GeneratedText string `json:"generated_text"`
}

type PublishRequest struct {
	Text          string
	ScheduledTime string
}
