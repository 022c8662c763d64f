package transfer

// Shapes for the LinkedIn REST API (v2 userinfo, assets and ugcPosts).

type LinkedinUserInfo struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

type RegisterUploadRequest struct {
	RegisterUploadRequest RegisterUploadBody `json:"registerUploadRequest"`
}

type RegisterUploadBody struct {
	Owner                    string                `json:"owner"`
	Recipes                  []string              `json:"recipes"`
	ServiceRelationships     []ServiceRelationship `json:"serviceRelationships"`
	SupportedUploadMechanism []string              `json:"supportedUploadMechanism"`
}

type ServiceRelationship struct {
	RelationshipType string `json:"relationshipType"`
	Identifier       string `json:"identifier"`
}

type RegisterUploadResponse struct {
	Value struct {
		UploadMechanism struct {
			MediaUploadHTTPRequest struct {
				UploadURL string            `json:"uploadUrl"`
				Headers   map[string]string `json:"headers"`
			} `json:"com.linkedin.digitalmedia.uploading.MediaUploadHttpRequest"`
		} `json:"uploadMechanism"`
		Asset string `json:"asset"`
	} `json:"value"`
}

type UGCPostRequest struct {
	Author          string          `json:"author"`
	LifecycleState  string          `json:"lifecycleState"`
	SpecificContent SpecificContent `json:"specificContent"`
	Visibility      Visibility      `json:"visibility"`
}

type SpecificContent struct {
	ShareContent ShareContent `json:"com.linkedin.ugc.ShareContent"`
}

type ShareContent struct {
	ShareCommentary    TextAttr     `json:"shareCommentary"`
	ShareMediaCategory string       `json:"shareMediaCategory"`
	Media              []ShareMedia `json:"media"`
}

type ShareMedia struct {
	Status      string   `json:"status"`
	Description TextAttr `json:"description"`
	Media       string   `json:"media"`
	Title       TextAttr `json:"title"`
}

type TextAttr struct {
	Text string `json:"text"`
}

type Visibility struct {
	MemberNetworkVisibility string `json:"com.linkedin.ugc.MemberNetworkVisibility"`
}

type UGCPostResponse struct {
	ID string `json:"id"`
}
