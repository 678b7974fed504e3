package captcha

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"studentcorner-backend/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

const report_ocrspace_parse = "ocrspace.parse"

// OCR recognizes the text in an image given as a data uri
// (data:image/png;base64,...).
type OCR interface {
	ExtractText(ctx context.Context, dataUri string) (string, error)
}

type OCRSpaceOptions struct {
	// Endpoint defaults to the public OCR.Space parse endpoint.
	Endpoint string
	// ApiKey defaults to the public demo key.
	ApiKey   string
	Language string
	Engine   int
	Timeout  time.Duration
}

func (o OCRSpaceOptions) withDefaults() OCRSpaceOptions {
	if o.Endpoint == "" {
		o.Endpoint = "https://api.ocr.space/parse/image"
	}
	if o.ApiKey == "" {
		o.ApiKey = "helloworld"
	}
	if o.Language == "" {
		o.Language = "eng"
	}
	if o.Engine == 0 {
		o.Engine = 2
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	return o
}

// OCRSpace is an OCR backed by the OCR.Space parse api.
type OCRSpace struct {
	opts OCRSpaceOptions
	http *resty.Client
	tel  telemetry.API
}

func NewOCRSpace(opts OCRSpaceOptions, tel telemetry.API) OCRSpace {
	opts = opts.withDefaults()
	tel = telemetry.NewScopedAPI("captcha", tel)

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("apikey", opts.ApiKey)
	telemetry.InstrumentResty(client, tel, "captcha/ocrspace", nil)

	return OCRSpace{opts: opts, http: client, tel: tel}
}

type ocrSpaceResponse struct {
	// pointer so that a missing field is distinguishable from false
	IsErroredOnProcessing *bool `json:"IsErroredOnProcessing"`
	ErrorMessage          any   `json:"ErrorMessage"`
	ParsedResults         []struct {
		ParsedText string `json:"ParsedText"`
	} `json:"ParsedResults"`
}

func (o OCRSpace) ExtractText(ctx context.Context, dataUri string) (string, error) {
	res, err := o.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"base64Image":       dataUri,
			"language":          o.opts.Language,
			"isOverlayRequired": "false",
			"detectOrientation": "false",
			"scale":             "true",
			"OCREngine":         strconv.Itoa(o.opts.Engine),
		}).
		Post(o.opts.Endpoint)
	if err != nil {
		return "", fmt.Errorf("ocrspace: request: %w", err)
	}
	if !res.IsSuccess() {
		return "", fmt.Errorf("ocrspace: unexpected status %s", res.Status())
	}

	var parsed ocrSpaceResponse
	err = json.Unmarshal(res.Body(), &parsed)
	if err != nil {
		o.tel.ReportBroken(report_ocrspace_parse, fmt.Errorf("unmarshal json: %w", err))
		return "", fmt.Errorf("ocrspace: malformed response: %w", err)
	}
	if parsed.IsErroredOnProcessing == nil {
		return "", fmt.Errorf("ocrspace: malformed response: missing IsErroredOnProcessing")
	}
	if *parsed.IsErroredOnProcessing {
		return "", fmt.Errorf("ocrspace: processing error: %v", parsed.ErrorMessage)
	}
	if len(parsed.ParsedResults) == 0 {
		return "", fmt.Errorf("ocrspace: no parsed results")
	}

	return parsed.ParsedResults[0].ParsedText, nil
}
