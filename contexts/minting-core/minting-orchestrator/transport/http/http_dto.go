package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type MintAttachmentDTO struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	ContentHash string `json:"content_hash"`
}

type MintRequest struct {
	Caller         string              `json:"caller"`
	ContentPackage string              `json:"content_package"`
	Attachments    []MintAttachmentDTO `json:"attachments"`
}

type MintResponse struct {
	Status string `json:"status"`
	Data   struct {
		RequestID        string   `json:"request_id"`
		ParentArtifactID string   `json:"parent_artifact_id"`
		ChildArtifactIDs []string `json:"child_artifact_ids"`
		CreditsSpent     uint64   `json:"credits_spent"`
	} `json:"data"`
}

type ArtifactsResponse struct {
	Status string `json:"status"`
	Data   struct {
		Parent struct {
			ArtifactID      string `json:"artifact_id"`
			RequestID       string `json:"request_id"`
			OwnerIdentity   string `json:"owner_identity"`
			ContentID       string `json:"content_id"`
			ByteSize        int64  `json:"byte_size"`
			AttachmentCount int    `json:"attachment_count"`
			CreatedAt       string `json:"created_at"`
		} `json:"parent"`
		Attachments []struct {
			ArtifactID  string `json:"artifact_id"`
			Index       int    `json:"index"`
			Filename    string `json:"filename"`
			ContentType string `json:"content_type"`
			Size        int64  `json:"size"`
			ContentHash string `json:"content_hash"`
		} `json:"attachments"`
	} `json:"data"`
}
