package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"tennisdata/ingestion/internal/models"
)

// DecodeEnvelope parses an uploaded or pasted JSON payload carrying the same
// envelope shape as the live API and runs it through the same validation and
// normalization path. No partial recovery is attempted on a bad payload.
func DecodeEnvelope(r io.Reader) ([]models.FixtureRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &MalformedPayloadError{Err: err}
	}
	return ParseEnvelope(data)
}

// ParseEnvelope parses raw envelope bytes. A payload that is not a JSON
// object of the expected shape is a MalformedPayloadError; one that parses
// but carries success != 1 is an UpstreamError.
func ParseEnvelope(data []byte) ([]models.FixtureRecord, error) {
	var env models.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &MalformedPayloadError{Err: err}
	}
	if env.Success == 0 && env.Result == nil && env.Message == "" {
		// A valid JSON document that shares nothing with the envelope shape
		// (e.g. a bare array or unrelated object) decodes to the zero value.
		return nil, &MalformedPayloadError{Err: fmt.Errorf("payload lacks envelope fields")}
	}
	if !env.OK() {
		return nil, &UpstreamError{Message: env.ErrorMessage()}
	}
	return models.NormalizeAll(env.Result), nil
}
