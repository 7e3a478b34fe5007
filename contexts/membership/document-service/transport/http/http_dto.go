package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RequestDownloadRequest struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// RequestDownloadResponse is identical for every accepted request; the body
// never reveals whether a code was actually issued.
type RequestDownloadResponse struct {
	Message string `json:"message"`
}

type VerifyOtpRequest struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

type VerifyOtpResponse struct {
	Token          string `json:"token"`
	TokenExpiresAt string `json:"token_expires_at"`
}

type MemberProfileDTO struct {
	MembershipID string `json:"membership_id"`
	FullName     string `json:"full_name"`
	FatherName   string `json:"father_name,omitempty"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	TeamType     string `json:"team_type"`
	RoleName     string `json:"role_name,omitempty"`
	Level        string `json:"level,omitempty"`
	State        string `json:"state"`
	Division     string `json:"division"`
	District     string `json:"district"`
	Block        string `json:"block,omitempty"`
	AcceptedAt   string `json:"accepted_at"`
}

type ViewProfileResponse struct {
	Profile MemberProfileDTO `json:"profile"`
}

type GenerateDocumentRequest struct {
	Token string `json:"token"`
	Type  string `json:"type"`
}

type GenerateDocumentResponse struct {
	FileName string `json:"file_name"`
	Content  []byte `json:"content"`
}
