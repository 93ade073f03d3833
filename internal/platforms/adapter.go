package platforms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/sambecker/postdeck/internal/models"
)

// apiClient is the plumbing every platform adapter shares: connection
// lookup, bearer-token HTTP calls, and failure classification.
type apiClient struct {
	http  *http.Client
	conns ConnectionSource
}

func (c *apiClient) connection(ctx context.Context, userID int64, platform string) (*models.Connection, error) {
	conn, err := c.conns.GetByUserPlatform(ctx, userID, platform)
	if err != nil {
		return nil, &DeliveryError{Platform: platform, Code: CodeUnknown, Message: err.Error()}
	}
	if conn == nil {
		return nil, &DeliveryError{Platform: platform, Code: CodeNotConnected, Message: "account is not connected"}
	}

	token := &oauth2.Token{
		AccessToken:  conn.AccessToken,
		RefreshToken: conn.RefreshToken,
		Expiry:       conn.TokenExpiresAt,
	}
	if !token.Valid() {
		return nil, &DeliveryError{Platform: platform, Code: CodeTokenExpired, Message: "access token has expired"}
	}

	return conn, nil
}

func (c *apiClient) postJSON(ctx context.Context, platform, url, accessToken string, body any) (map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &DeliveryError{Platform: platform, Code: CodeUnknown, Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &DeliveryError{Platform: platform, Code: CodeUnknown, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, &DeliveryError{Platform: platform, Code: CodeNetworkError, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &DeliveryError{Platform: platform, Code: CodeNetworkError, Message: err.Error()}
	}

	var decoded map[string]any
	if len(raw) > 0 {
		// Tolerate non-JSON bodies; classification below only needs the map
		// when the platform actually returned one.
		_ = json.Unmarshal(raw, &decoded)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &DeliveryError{Platform: platform, Code: CodeTokenExpired, Message: rejectionMessage(decoded, resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		return nil, &DeliveryError{Platform: platform, Code: CodeRejected, Message: rejectionMessage(decoded, resp.StatusCode)}
	}

	return decoded, nil
}

func rejectionMessage(body map[string]any, status int) string {
	for _, key := range []string{"message", "error_description", "detail"} {
		if v, ok := body[key].(string); ok && v != "" {
			return v
		}
	}
	if errObj, ok := body["error"].(map[string]any); ok {
		if v, ok := errObj["message"].(string); ok && v != "" {
			return v
		}
	}
	if v, ok := body["error"].(string); ok && v != "" {
		return v
	}
	return fmt.Sprintf("platform returned status %d", status)
}

// extractPostID normalizes the several shapes platform APIs use for a
// created post's identifier. Shape sniffing happens here and nowhere else.
func extractPostID(body map[string]any) string {
	for _, key := range []string{"id", "post_id", "postId", "urn", "media_id"} {
		if v, ok := body[key].(string); ok && v != "" {
			return v
		}
		if v, ok := body[key].(float64); ok {
			return fmt.Sprintf("%.0f", v)
		}
	}
	if data, ok := body["data"].(map[string]any); ok {
		return extractPostID(data)
	}
	return ""
}

func successResult(platform string, body map[string]any) (*PublishResult, error) {
	id := extractPostID(body)
	if id == "" {
		return nil, &DeliveryError{Platform: platform, Code: CodeUnknown, Message: "platform response carried no post id"}
	}
	return &PublishResult{PlatformPostID: id}, nil
}
