package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/licitaciones-api/internal/application/auth"
	"github.com/jhoicas/licitaciones-api/internal/application/bid"
	"github.com/jhoicas/licitaciones-api/internal/application/dto"
	"github.com/jhoicas/licitaciones-api/internal/application/mail"
	"github.com/jhoicas/licitaciones-api/internal/application/messaging"
	"github.com/jhoicas/licitaciones-api/internal/application/report"
	"github.com/jhoicas/licitaciones-api/internal/application/tender"
	"github.com/jhoicas/licitaciones-api/internal/application/usecase"
	"github.com/jhoicas/licitaciones-api/internal/domain/entity"
	"github.com/jhoicas/licitaciones-api/internal/domain/permission"
	"github.com/jhoicas/licitaciones-api/internal/infrastructure/codestore"
	"github.com/jhoicas/licitaciones-api/internal/infrastructure/pdf"
	"github.com/jhoicas/licitaciones-api/internal/infrastructure/sms"
	apphttp "github.com/jhoicas/licitaciones-api/internal/interfaces/http"
	"github.com/jhoicas/licitaciones-api/internal/testutil/memstore"
)

// newAPI arma el router completo sobre el almacenamiento en memoria.
func newAPI(t *testing.T) (*fiber.App, *memstore.Store) {
	t.Helper()
	s := memstore.New()
	for _, u := range []struct{ id, role string }{
		{"sec", entity.RoleSecretary},
		{"A", entity.RoleTenderProcurementGroup},
		{"X", entity.RoleTenderer},
		{"Y", entity.RoleTenderer},
	} {
		require.NoError(t, s.Users().Create(context.Background(), &entity.User{
			ID: u.id, Username: u.id, Email: u.id + "@x.com", Phone: "+57" + u.id, Role: u.role,
		}))
	}

	perms := permission.Default()
	nop := zerolog.Nop()
	notifier := mail.NewNotifier(nop)
	files := memstore.NewFileStore()
	tenderUC := tender.NewUseCase(s.Tenders(), s.Bids(), s.Users(), s, files, perms, notifier, nop)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC: auth.NewAuthUseCase(s.Users(), sms.NewLogSender(nop), codestore.NewMemoryStore(time.Minute),
			auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer},
			auth.SMSConfig{LoginTemplate: "LOGIN", CodeTTL: time.Minute}, nop),
		UserUC:      usecase.NewUserUseCase(s.Users(), perms),
		TendererUC:  usecase.NewTendererUseCase(s.TendererDetails(), s.Users(), s.Mails(), files, perms, notifier),
		TenderUC:    tenderUC,
		BidUC:       bid.NewUseCase(s.Bids(), s.Tenders(), s.TendererDetails(), files, perms, nop),
		MessagingUC: messaging.NewUseCase(s.Tenders(), s.Conversations(), s.Messages(), s, files, perms, notifier, nop),
		MailUC:      mail.NewUseCase(s.Mails(), s.Users(), s.Tenders(), s.Bids(), s.Conversations(), s.Messages()),
		ReportUC:    report.NewUseCase(tenderUC, s.Users(), pdf.NewMarotoPDFGenerator()),
		JWTSecret:   testJWTSecret,
	})
	return app, s
}

func call(t *testing.T, app *fiber.App, method, path, userID, role string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if userID != "" {
		req.Header.Set("Authorization", tokenFor(t, userID, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func callJSON(t *testing.T, app *fiber.App, method, path, userID, role string, in any) *http.Response {
	t.Helper()
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return call(t, app, method, path, userID, role, body, fiber.MIMEApplicationJSON)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// createTender publica una licitación por multipart con un adjunto.
func createTender(t *testing.T, app *fiber.App) dto.TenderResponse {
	t.Helper()
	data, err := json.Marshal(dto.CreateTenderRequest{
		Title:            "Compra de equipos",
		ClosingDate:      time.Now().Add(48 * time.Hour),
		TargetedUsers:    []string{"X"},
		ProcurementGroup: []string{"A"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("data", string(data)))
	part, err := w.CreateFormFile("files", "pliego.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	resp := call(t, app, http.MethodPost, "/api/tenders", "sec", entity.RoleSecretary, &buf, w.FormDataContentType())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.TenderResponse](t, resp)
}

func TestRouter_RegistroYLogin(t *testing.T) {
	app, _ := newAPI(t)

	resp := callJSON(t, app, http.MethodPost, "/api/auth/register", "", "", dto.RegisterRequest{
		Username: "proveedor", Email: "prov@example.com", Phone: "+573001112233", Password: "secreto123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	user := decode[dto.UserResponse](t, resp)
	assert.Equal(t, entity.RoleTenderer, user.Role)

	resp = callJSON(t, app, http.MethodPost, "/api/auth/login", "", "", dto.LoginRequest{
		Email: "prov@example.com", Password: "secreto123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[dto.LoginResponse](t, resp)
	assert.NotEmpty(t, login.Token)

	resp = callJSON(t, app, http.MethodPost, "/api/auth/login", "", "", dto.LoginRequest{
		Email: "prov@example.com", Password: "incorrecta",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = callJSON(t, app, http.MethodPost, "/api/auth/login", "", "", dto.LoginRequest{
		Email: "nadie@example.com", Password: "secreto123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "no revela si el usuario existe")
}

func TestRouter_RegistroValidaCampos(t *testing.T) {
	app, _ := newAPI(t)
	resp := callJSON(t, app, http.MethodPost, "/api/auth/register", "", "", dto.RegisterRequest{Email: "a@b.com"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = call(t, app, http.MethodPost, "/api/auth/login", "", "", strings.NewReader("{"), fiber.MIMEApplicationJSON)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_LicitacionVisibilidad(t *testing.T) {
	app, _ := newAPI(t)
	created := createTender(t, app)
	assert.Equal(t, string(entity.TenderOpen), created.Status)
	require.Len(t, created.Files, 1)

	resp := call(t, app, http.MethodGet, "/api/tenders/"+created.ID, "X", entity.RoleTenderer, nil, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/tenders/"+created.ID, "Y", entity.RoleTenderer, nil, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/tenders/no-existe", "sec", entity.RoleSecretary, nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/tenders?limit=10", "Y", entity.RoleTenderer, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.TenderListResponse](t, resp)
	assert.Empty(t, list.Items)
}

func TestRouter_OfertasOcultasMientrasAbierta(t *testing.T) {
	app, _ := newAPI(t)
	created := createTender(t, app)

	resp := call(t, app, http.MethodGet, "/api/tenders/"+created.ID+"/bids", "A", entity.RoleTenderProcurementGroup, nil, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = call(t, app, http.MethodGet, "/api/tenders/"+created.ID+"/report", "A", entity.RoleTenderProcurementGroup, nil, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRouter_SecretariaNoPuedeOfertar(t *testing.T) {
	app, _ := newAPI(t)
	created := createTender(t, app)

	resp := callJSON(t, app, http.MethodPost, "/api/tenders/"+created.ID+"/bids", "sec", entity.RoleSecretary,
		map[string]string{"amount": "100"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRouter_Bandeja(t *testing.T) {
	app, _ := newAPI(t)
	created := createTender(t, app)

	resp := call(t, app, http.MethodGet, "/api/mails/unread-count", "X", entity.RoleTenderer, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[dto.UnreadCountResponse](t, resp).Unread)

	resp = call(t, app, http.MethodGet, "/api/mails?unread_only=true&newest_first=true", "X", entity.RoleTenderer, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	inbox := decode[[]dto.MailResponse](t, resp)
	require.Len(t, inbox, 1)
	assert.Equal(t, created.ID, inbox[0].Related.ID)

	// Y no puede tocar correos ajenos.
	resp = callJSON(t, app, http.MethodPut, "/api/mails/read", "Y", entity.RoleTenderer,
		dto.SetReadRequest{IDs: []string{inbox[0].ID}, Read: true})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = callJSON(t, app, http.MethodPut, "/api/mails/read", "X", entity.RoleTenderer,
		dto.SetReadRequest{IDs: []string{inbox[0].ID}, Read: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), decode[dto.AffectedResponse](t, resp).Affected)

	resp = callJSON(t, app, http.MethodPut, "/api/mails/read", "X", entity.RoleTenderer, dto.SetReadRequest{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_MensajeCreaConversacion(t *testing.T) {
	app, _ := newAPI(t)
	created := createTender(t, app)

	resp := callJSON(t, app, http.MethodPost, "/api/tenders/"+created.ID+"/messages", "X", entity.RoleTenderer,
		dto.PostMessageRequest{Content: "¿Se aceptan ofertas parciales?"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[dto.PostMessageResponse](t, resp)
	assert.Equal(t, "X", out.Conversation.TendererID)

	resp = call(t, app, http.MethodGet, "/api/conversations/"+out.Conversation.ID+"/messages", "sec", entity.RoleSecretary, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	msgs := decode[[]dto.MessageResponse](t, resp)
	require.Len(t, msgs, 1)
	assert.Equal(t, "X", msgs[0].SenderID)
}

func TestRouter_AdminUsuarios(t *testing.T) {
	app, _ := newAPI(t)

	resp := callJSON(t, app, http.MethodPut, "/api/users/X/role", "sec", entity.RoleSecretary,
		dto.ChangeRoleRequest{Role: entity.RoleAdmin})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = callJSON(t, app, http.MethodPut, "/api/users/nadie/role", "root", entity.RoleAdmin,
		dto.ChangeRoleRequest{Role: entity.RoleSecretary})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
