package gemini

// Wire types for the generateContent surface.

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature        float64      `json:"temperature,omitempty"`
	ResponseMIMEType   string       `json:"responseMimeType,omitempty"`
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
	Error      *errorBody  `json:"error,omitempty"`
}

type candidate struct {
	Content content `json:"content"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Wire types for the long-running video surface.

type predictVideoRequest struct {
	Instances  []videoInstance  `json:"instances"`
	Parameters *videoParameters `json:"parameters,omitempty"`
}

type videoInstance struct {
	Prompt          string           `json:"prompt"`
	ReferenceImages []referenceImage `json:"referenceImages,omitempty"`
}

type referenceImage struct {
	Image blob `json:"image"`
}

type videoParameters struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
	Resolution  string `json:"resolution,omitempty"`
}

type operationResponse struct {
	Name     string         `json:"name"`
	Done     bool           `json:"done"`
	Error    *errorBody     `json:"error,omitempty"`
	Response *videoResponse `json:"response,omitempty"`
}

type videoResponse struct {
	GenerateVideoResponse *generateVideoResponse `json:"generateVideoResponse,omitempty"`
}

type generateVideoResponse struct {
	GeneratedSamples []generatedSample `json:"generatedSamples"`
}

type generatedSample struct {
	Video videoRef `json:"video"`
}

type videoRef struct {
	URI string `json:"uri"`
}
