package httpclient

import "time"

// logRequest logs the outgoing request
func (c *client) logRequest(method string, req *Request, attempt int) {
	event := c.log.Info().
		Str("direction", "outbound").
		Str("method", method).
		Str("path", req.Path).
		Int("attempt", attempt)

	if c.config.LogPayloads {
		if len(req.Headers) > 0 {
			event.Interface("headers", req.Headers)
		}
		if len(req.Body) > 0 {
			event.Bytes("body", truncatePayload(req.Body, c.config.MaxPayloadLogBytes))
		}
	}

	event.Msg("rest client request")
}

// logResponse logs the incoming response
func (c *client) logResponse(resp *Response) {
	event := c.log.Info().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int("attempts", resp.Stats.Attempts)

	if resp.Stats.BytesTransferred > 0 {
		event.Int64("bytes", resp.Stats.BytesTransferred)
	}

	if c.config.LogPayloads && len(resp.Body) > 0 {
		event.Bytes("body", truncatePayload(resp.Body, c.config.MaxPayloadLogBytes))
	}

	event.Msg("rest client response")
}

// logRetry logs a scheduled re-issue of a failed attempt
func (c *client) logRetry(method string, req *Request, attempt int, delay time.Duration, err error) {
	c.log.Warn().
		Err(err).
		Str("method", method).
		Str("path", req.Path).
		Int("attempt", attempt).
		Dur("retry_in", delay).
		Msg("rest client retrying request")
}

// truncatePayload caps a logged body to max bytes
func truncatePayload(b []byte, max int) []byte {
	if max <= 0 || len(b) <= max {
		return b
	}
	return b[:max]
}
