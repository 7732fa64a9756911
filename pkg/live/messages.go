package live

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"google.golang.org/genai"
)

// Wire messages for the BidiGenerateContent websocket protocol. Field names
// follow the endpoint's camelCase JSON.

type setupMessage struct {
	Setup *setupPayload `json:"setup"`
}

type setupPayload struct {
	Model                    string                    `json:"model"`
	GenerationConfig         *generationConfig         `json:"generationConfig,omitempty"`
	SystemInstruction        *genai.Content            `json:"systemInstruction,omitempty"`
	Tools                    []*genai.Tool             `json:"tools,omitempty"`
	InputAudioTranscription  *audioTranscriptionConfig `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *audioTranscriptionConfig `json:"outputAudioTranscription,omitempty"`
}

// audioTranscriptionConfig has no fields; its presence in the setup asks the
// endpoint to stream transcription alongside the audio.
type audioTranscriptionConfig struct{}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig *voiceConfig `json:"voiceConfig,omitempty"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig *prebuiltVoiceConfig `json:"prebuiltVoiceConfig,omitempty"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type realtimeInputMessage struct {
	RealtimeInput *realtimeInput `json:"realtimeInput"`
}

type realtimeInput struct {
	Audio *inlineBlob `json:"audio,omitempty"`
}

type inlineBlob struct {
	MIMEType string `json:"mimeType"`
	// Data is standard base64.
	Data string `json:"data"`
}

type clientContentMessage struct {
	ClientContent *clientContent `json:"clientContent"`
}

type clientContent struct {
	Turns        []*genai.Content `json:"turns,omitempty"`
	TurnComplete bool             `json:"turnComplete"`
}

type toolResponseMessage struct {
	ToolResponse *toolResponsePayload `json:"toolResponse"`
}

type toolResponsePayload struct {
	FunctionResponses []*functionResponse `json:"functionResponses"`
}

type functionResponse struct {
	ID       string         `json:"id,omitempty"`
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

// serverMessage is the union of everything the endpoint sends. Exactly one
// field is set per message.
type serverMessage struct {
	SetupComplete        *struct{}             `json:"setupComplete,omitempty"`
	ServerContent        *serverContent        `json:"serverContent,omitempty"`
	ToolCall             *serverToolCall       `json:"toolCall,omitempty"`
	ToolCallCancellation *toolCallCancellation `json:"toolCallCancellation,omitempty"`
	GoAway               *struct{}             `json:"goAway,omitempty"`
}

type serverContent struct {
	ModelTurn           *genai.Content `json:"modelTurn,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
	Interrupted         bool           `json:"interrupted,omitempty"`
	InputTranscription  *transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *transcription `json:"outputTranscription,omitempty"`
}

type transcription struct {
	Text string `json:"text"`
}

type serverToolCall struct {
	FunctionCalls []*serverFunctionCall `json:"functionCalls"`
}

type serverFunctionCall struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

type toolCallCancellation struct {
	IDs []string `json:"ids"`
}

// ConvSchema converts a derived argument schema into the endpoint's schema
// representation.
func ConvSchema(schema *jsonschema.Schema) *genai.Schema {
	if schema == nil {
		return nil
	}

	enums := make([]string, 0, len(schema.Enum))
	for _, v := range schema.Enum {
		enums = append(enums, fmt.Sprintf("%v", v))
	}

	gs := genai.Schema{
		Format:      schema.Format,
		Description: schema.Description,
		Enum:        enums,
		Items:       ConvSchema(schema.Items),
		Required:    schema.Required,
	}

	if n := len(schema.Properties); n > 0 {
		gs.Properties = make(map[string]*genai.Schema, n)
		for k, prop := range schema.Properties {
			gs.Properties[k] = ConvSchema(prop)
		}
	}
	switch schema.Type {
	case "object":
		gs.Type = genai.TypeObject
	case "array":
		gs.Type = genai.TypeArray
	case "string":
		gs.Type = genai.TypeString
	case "number":
		gs.Type = genai.TypeNumber
	case "integer":
		gs.Type = genai.TypeInteger
	case "boolean":
		gs.Type = genai.TypeBoolean
	}
	return &gs
}
