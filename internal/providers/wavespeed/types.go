package wavespeed

// CreateRequest captures the inputs for an image-to-video submission.
type CreateRequest struct {
	ImageURL string
	Prompt   string
}

// CreateResult is the normalized outcome of a create call. The provider nests
// the job id under a data envelope; normalizing it is this package's job.
type CreateResult struct {
	ID        string
	StatusURL string
}

// Callback is the canonical shape of an asynchronous provider notification,
// whether it arrived on the webhook or was fetched by the poll sweep.
type Callback struct {
	ID           string
	Status       string
	VideoURL     string
	ErrorMessage string
}

type createPayload struct {
	Image      string `json:"image"`
	Prompt     string `json:"prompt,omitempty"`
	WebhookURL string `json:"webhook_url,omitempty"`
}

// createResponse mirrors the provider's envelope: { code, message, data: { id, ... } }.
type createResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		URLs   struct {
			Get string `json:"get"`
		} `json:"urls"`
	} `json:"data"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
