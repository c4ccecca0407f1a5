// Package sms envía códigos de inicio de sesión por un gateway HTTP de SMS.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/licitaciones-api/internal/application/ports"
)

var (
	_ ports.SMSSender = (*GatewayClient)(nil)
	_ ports.SMSSender = (*LogSender)(nil)
)

// GatewayClient cliente del gateway: POST JSON con plantilla y parámetros, autenticado con API key.
type GatewayClient struct {
	url        string
	apiKey     string
	signName   string
	httpClient *http.Client
}

// NewGatewayClient construye el cliente con timeout fijo.
func NewGatewayClient(url, apiKey, signName string) *GatewayClient {
	return &GatewayClient{
		url:        url,
		apiKey:     apiKey,
		signName:   signName,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	Phone    string            `json:"phone_number"`
	SignName string            `json:"sign_name"`
	Template string            `json:"template_code"`
	Params   map[string]string `json:"template_param"`
}

type sendResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Send un código distinto de "OK" en la respuesta también es fallo.
func (c *GatewayClient) Send(ctx context.Context, phone, template string, params map[string]string) error {
	body, err := json.Marshal(sendRequest{Phone: phone, SignName: c.signName, Template: template, Params: params})
	if err != nil {
		return fmt.Errorf("serializar SMS: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("crear petición SMS: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("enviar SMS: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("gateway SMS respondió %d: %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	var out sendResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("respuesta SMS inválida: %w", err)
	}
	if out.Code != "OK" {
		return fmt.Errorf("gateway SMS rechazó el envío: %s %s", out.Code, out.Message)
	}
	return nil
}

// LogSender solo registra el envío. Se usa en desarrollo cuando no hay gateway configurado.
type LogSender struct {
	log zerolog.Logger
}

// NewLogSender construye el emisor de desarrollo.
func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send registra teléfono, plantilla y parámetros.
func (s *LogSender) Send(_ context.Context, phone, template string, params map[string]string) error {
	s.log.Info().Str("phone", phone).Str("template", template).Interface("params", params).Msg("SMS (sin gateway)")
	return nil
}
