package dto

import "github.com/jhoicas/licitaciones-api/internal/domain/entity"

// ToFileResponses convierte descriptores de dominio.
func ToFileResponses(files []entity.FileDescriptor) []FileResponse {
	out := make([]FileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, *ToFileResponse(&f))
	}
	return out
}

// ToFileResponse devuelve nil si f es nil.
func ToFileResponse(f *entity.FileDescriptor) *FileResponse {
	if f == nil {
		return nil
	}
	return &FileResponse{Filename: f.Filename, Path: f.Path, UploadedAt: f.UploadedAt, UploadedBy: f.UploadedBy}
}

// ToUserResponse salida sin credenciales.
func ToUserResponse(u *entity.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ToTenderResponse salida completa de la licitación.
func ToTenderResponse(t *entity.Tender) *TenderResponse {
	if t == nil {
		return nil
	}
	return &TenderResponse{
		ID:                t.ID,
		Title:             t.Title,
		Description:       t.Description,
		IssueDate:         t.IssueDate,
		ClosingDate:       t.ClosingDate,
		Contact:           ContactDTO{Name: t.Contact.Name, Email: t.Contact.Email, Phone: t.Contact.Phone},
		OtherRequirements: t.OtherRequirements,
		Files:             ToFileResponses(t.Files),
		Status:            string(t.Status),
		TargetedUsers:     nonNil(t.TargetedUsers),
		ProcurementGroup:  nonNil(t.ProcurementGroup),
		Approvals:         nonNil(t.Approvals),
		WinningBidID:      t.WinningBidID,
		CreatedBy:         t.CreatedBy,
		Version:           t.Version,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

// ToBidResponse incluye evaluaciones y promedio.
func ToBidResponse(b *entity.Bid) *BidResponse {
	if b == nil {
		return nil
	}
	evals := make([]EvaluationResponse, 0, len(b.Evaluations))
	for _, e := range b.Evaluations {
		evals = append(evals, EvaluationResponse{
			ID:          e.ID,
			EvaluatorID: e.EvaluatorID,
			Score:       e.Score,
			Feedback:    e.Feedback,
			Files:       ToFileResponses(e.Files),
			EvaluatedAt: e.EvaluatedAt,
		})
	}
	return &BidResponse{
		ID:           b.ID,
		TenderID:     b.TenderID,
		BidderID:     b.BidderID,
		Amount:       b.Amount,
		Content:      b.Content,
		Files:        ToFileResponses(b.Files),
		Status:       string(b.Status),
		Evaluations:  evals,
		AverageScore: b.AverageScore(),
		SubmittedAt:  b.SubmittedAt,
	}
}

// ToConversationResponse salida del hilo.
func ToConversationResponse(c *entity.Conversation) *ConversationResponse {
	if c == nil {
		return nil
	}
	return &ConversationResponse{
		ID:          c.ID,
		TenderID:    c.TenderID,
		TendererID:  c.TendererID,
		CreatedAt:   c.CreatedAt,
		LastUpdated: c.LastUpdated,
	}
}

// ToMessageResponse salida del mensaje.
func ToMessageResponse(m *entity.Message) *MessageResponse {
	if m == nil {
		return nil
	}
	return &MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		Files:          ToFileResponses(m.Files),
		CreatedAt:      m.CreatedAt,
	}
}

// ToTendererDetailsResponse salida de los datos empresariales.
func ToTendererDetailsResponse(d *entity.TendererDetails) *TendererDetailsResponse {
	if d == nil {
		return nil
	}
	comments := make([]TendererCommentResponse, 0, len(d.Comments))
	for _, c := range d.Comments {
		comments = append(comments, TendererCommentResponse{CommenterID: c.CommenterID, Text: c.Text, CreatedAt: c.CreatedAt})
	}
	return &TendererDetailsResponse{
		UserID:                  d.UserID,
		BusinessLicense:         ToFileResponse(d.BusinessLicense),
		BusinessType:            d.BusinessType,
		LegalRepresentative:     d.LegalRepresentative,
		EstablishedOn:           d.EstablishedOn,
		Country:                 d.Country,
		OfficeAddress:           d.OfficeAddress,
		LegalRepBusinessCard:    ToFileResponse(d.LegalRepBusinessCard),
		UnifiedSocialCreditCode: d.UnifiedSocialCreditCode,
		Verified:                d.Verified,
		Complete:                d.Complete(),
		Comments:                comments,
		UpdatedAt:               d.UpdatedAt,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
