package studio

import "errors"

// 错误分类，用 errors.Is 判断
var (
	ErrNotConfigured = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrRemote        = errors.New("remote failure")
	ErrLocalIO       = errors.New("local I/O failure")
	ErrBusy          = errors.New("another request is already in flight")
)

const (
	msgNotConfigured     = "API key is not configured. Requests cannot be made."
	msgEmptyKey          = "API key cannot be empty."
	msgInitFailed        = "Failed to initialize the API with the provided key. Please check the key and try again."
	msgPromptRequired    = "A prompt is required to generate an image."
	msgCustomInGenerate  = "Custom aspect ratio is only available in transform mode."
	msgNoSourceImage     = "Upload or generate an image before transforming it."
	msgInvalidCustomSize = "Custom width and height must be positive integers."
	msgNoImageToEnhance  = "There is no image to enhance."
	msgNoImageToExport   = "There is no image to download."
	msgNoMediaType       = "The displayed image has no media type."
	msgUnknown           = "An unknown error occurred."
	msgFileRead          = "Failed to read file."
	msgFileEmpty         = "The selected file is empty."
	msgNotImage          = "The selected file is not an image."
	msgKeyNotSaved       = "The API key works but could not be saved."
	msgKeyNotCleared     = "The stored API key could not be removed."
	msgStorageMissing    = "Object storage is not configured."
	msgFileWrite         = "Failed to save the image."
)

// Error 面向用户的错误：Error() 是展示给用户的文案，Unwrap 暴露分类与底层原因
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func validationError(msg string) *Error {
	return &Error{Kind: ErrValidation, Msg: msg}
}

func configError(msg string, cause error) *Error {
	return &Error{Kind: ErrNotConfigured, Msg: msg, Err: cause}
}

func ioError(msg string, cause error) *Error {
	return &Error{Kind: ErrLocalIO, Msg: msg, Err: cause}
}

func busyError() *Error {
	return &Error{Kind: ErrBusy, Msg: ErrBusy.Error()}
}
