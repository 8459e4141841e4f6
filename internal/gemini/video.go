package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dqalex/OmniSpark/internal/model"
)

// SubmitVideo starts a long-running video job and returns the operation
// name. Reference images beyond the provider limit are truncated before the
// call.
func (c *Client) SubmitVideo(ctx context.Context, prompt string, refs []model.MediaPayload, opts model.VideoOptions) (string, error) {
	if len(refs) > model.MaxVideoReferences {
		refs = refs[:model.MaxVideoReferences]
	}

	instance := videoInstance{Prompt: prompt}
	for _, r := range refs {
		if r.Empty() {
			continue
		}
		instance.ReferenceImages = append(instance.ReferenceImages, referenceImage{
			Image: blob{
				MimeType: r.MimeType,
				Data:     base64.StdEncoding.EncodeToString(r.Data),
			},
		})
	}

	req := predictVideoRequest{
		Instances: []videoInstance{instance},
		Parameters: &videoParameters{
			AspectRatio: opts.AspectRatio,
			Resolution:  opts.Resolution,
		},
	}

	raw, err := c.postJSON(ctx, c.modelPath(c.videoModel, "predictLongRunning"), req)
	if err != nil {
		return "", classify(err, "video submission")
	}

	var op operationResponse
	if err := json.Unmarshal(raw, &op); err != nil {
		return "", fmt.Errorf("decode operation: %w", err)
	}
	if op.Name == "" {
		return "", model.NewGenerationError(model.KindEmptyResult, "no operation handle in response")
	}
	return op.Name, nil
}

// PollVideo fetches the state of a long-running operation. While the job is
// running it returns a status with Done unset; a completed job with no video
// URI is a provider-side failure.
func (c *Client) PollVideo(ctx context.Context, operation string) (model.OperationStatus, error) {
	raw, err := c.getJSON(ctx, "/"+c.apiVersion+"/"+strings.TrimPrefix(operation, "/"))
	if err != nil {
		return model.OperationStatus{}, classify(err, "video polling")
	}

	var op operationResponse
	if err := json.Unmarshal(raw, &op); err != nil {
		return model.OperationStatus{}, fmt.Errorf("decode operation: %w", err)
	}
	if op.Error != nil {
		return model.OperationStatus{}, model.NewGenerationError(model.KindVideoFailed, op.Error.Message)
	}
	if !op.Done {
		return model.OperationStatus{Done: false}, nil
	}

	uri := firstVideoURI(op)
	if uri == "" {
		return model.OperationStatus{}, model.NewGenerationError(model.KindVideoFailed, "operation completed without a video")
	}
	return model.OperationStatus{Done: true, VideoURI: uri}, nil
}

// DownloadVideo resolves a remote video locator into local bytes with an
// authenticated fetch. The raw locator is not usable by a renderer without
// this step.
func (c *Client) DownloadVideo(ctx context.Context, uri string) (model.MediaPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return model.MediaPayload{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	raw, err := c.do(req)
	if err != nil {
		return model.MediaPayload{}, classify(err, "video download")
	}
	if len(raw) == 0 {
		return model.MediaPayload{}, model.NewGenerationError(model.KindEmptyResult, "empty video body")
	}
	return model.MediaPayload{MimeType: "video/mp4", Data: raw}, nil
}

func firstVideoURI(op operationResponse) string {
	if op.Response == nil || op.Response.GenerateVideoResponse == nil {
		return ""
	}
	samples := op.Response.GenerateVideoResponse.GeneratedSamples
	if len(samples) == 0 {
		return ""
	}
	return samples[0].Video.URI
}
