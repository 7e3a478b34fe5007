package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SubmitApplicationRequest struct {
	FullName   string `json:"full_name"`
	FatherName string `json:"father_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	TeamType   string `json:"team_type"`
	State      string `json:"state"`
	District   string `json:"district"`
	Block      string `json:"block"`
}

type AcceptApplicationRequest struct {
	Note     string `json:"note"`
	JobRole  string `json:"job_role"`
	TeamType string `json:"team_type"`
}

type RejectApplicationRequest struct {
	Reason string `json:"reason"`
}

type AssignApplicationRequest struct {
	AssigneeID string `json:"assignee_id"`
}

type ManageRoleRequest struct {
	Category string `json:"category"`
	RoleCode string `json:"role_code"`
	TeamType string `json:"team_type"`
	Level    string `json:"level"`
	State    string `json:"state"`
	Division string `json:"division"`
	District string `json:"district"`
	Block    string `json:"block"`
	Reason   string `json:"reason"`
}

type ApplicationDTO struct {
	ApplicationID string `json:"application_id"`
	FullName      string `json:"full_name"`
	FatherName    string `json:"father_name,omitempty"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	Address       string `json:"address,omitempty"`
	TeamType      string `json:"team_type"`
	LocatedAt     string `json:"located_at"`
	State         string `json:"state"`
	Division      string `json:"division"`
	District      string `json:"district"`
	Block         string `json:"block,omitempty"`
	Status        string `json:"status"`
	AssignedTo    string `json:"assigned_to,omitempty"`
	MembershipID  string `json:"membership_id,omitempty"`
	LetterURL     string `json:"letter_url,omitempty"`
	AcceptedAt    string `json:"accepted_at,omitempty"`
	RejectedAt    string `json:"rejected_at,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type RoleAssignmentDTO struct {
	Category   string `json:"category"`
	RoleCode   string `json:"role_code"`
	RoleName   string `json:"role_name"`
	TeamType   string `json:"team_type"`
	Level      string `json:"level"`
	Location   string `json:"location"`
	Reason     string `json:"reason,omitempty"`
	AssignedBy string `json:"assigned_by"`
	AssignedAt string `json:"assigned_at"`
}

type HistoryEntryDTO struct {
	HistoryID string `json:"history_id"`
	ActorID   string `json:"actor_id,omitempty"`
	ActorRole string `json:"actor_role,omitempty"`
	Action    string `json:"action"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at"`
}

type SubmitApplicationResponse struct {
	Application ApplicationDTO `json:"application"`
}

type ClaimApplicationResponse struct {
	Application ApplicationDTO `json:"application"`
}

type AcceptApplicationResponse struct {
	Application ApplicationDTO `json:"application"`
}

type RejectApplicationResponse struct {
	Application ApplicationDTO `json:"application"`
}

type ManageRoleResponse struct {
	Application ApplicationDTO    `json:"application"`
	Assignment  RoleAssignmentDTO `json:"assignment"`
}

type GetApplicationResponse struct {
	Application ApplicationDTO     `json:"application"`
	Assignment  *RoleAssignmentDTO `json:"assignment,omitempty"`
	History     []HistoryEntryDTO  `json:"history"`
}

type ListApplicationsResponse struct {
	Items      []ApplicationDTO `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// VerifyMembershipResponse is the public snapshot behind the letter QR code.
type VerifyMembershipResponse struct {
	Valid        bool   `json:"valid"`
	MembershipID string `json:"membership_id"`
	FullName     string `json:"full_name"`
	TeamType     string `json:"team_type"`
	District     string `json:"district"`
	Division     string `json:"division"`
	State        string `json:"state"`
	AcceptedAt   string `json:"accepted_at,omitempty"`
}
