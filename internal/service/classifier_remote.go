package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RemoteClassifier calls a model server over HTTP. The server accepts the
// raw image on POST /predict and answers with {"scores": [...]}. Score
// order is described by Labels, or by GET /metadata when Labels is empty
type RemoteClassifier struct {
	URL    string
	Labels []string
	Client *http.Client
}

type predictResponse struct {
	Scores []float64 `json:"scores"`
}

type metadataResponse struct {
	Labels []string `json:"labels"`
}

func NewRemoteClassifier(ctx context.Context, url string, labels []string, timeout time.Duration) (*RemoteClassifier, error) {
	if timeout <= 0 {
		timeout = time.Second * 30
	}

	rc := &RemoteClassifier{
		URL:    strings.TrimRight(url, "/"),
		Labels: labels,
		Client: &http.Client{Timeout: timeout},
	}

	if len(rc.Labels) == 0 {
		l, err := rc.fetchLabels(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read model labels, %w", err)
		}

		rc.Labels = l
	}

	for i, l := range rc.Labels {
		rc.Labels[i] = strings.ToUpper(strings.TrimSpace(l))
	}

	zap.L().Debug("Remote classifier ready", zap.String("url", rc.URL), zap.Strings("labels", rc.Labels))
	return rc, nil
}

func (rc *RemoteClassifier) fetchLabels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rc.URL+"/metadata", nil)
	if err != nil {
		return nil, err
	}

	resp, err := rc.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("metadata endpoint returned %d", resp.StatusCode)
	}

	var md metadataResponse
	if err := json.NewDecoder(resp.Body).Decode(&md); err != nil {
		return nil, err
	}

	if len(md.Labels) == 0 {
		return nil, fmt.Errorf("model metadata has no labels")
	}

	return md.Labels, nil
}

func (rc *RemoteClassifier) Classify(ctx context.Context, image []byte) (Prediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rc.URL+"/predict", bytes.NewReader(image))
	if err != nil {
		return Prediction{}, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := rc.Client.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: %w", ErrClassifier, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Prediction{}, fmt.Errorf("%w: model server returned %d: %s", ErrClassifier, resp.StatusCode, body)
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return Prediction{}, fmt.Errorf("%w: %w", ErrClassifier, err)
	}

	return FromScores(pr.Scores, rc.Labels)
}
