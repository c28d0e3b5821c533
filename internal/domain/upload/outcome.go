package upload

import "fmt"

const (
	MsgFileNotUploaded   = "File not uploaded"
	MsgUnsupportedType   = "Unsupported file type"
	MsgNotUploadedFile   = "Not uploaded file"
	MsgFailedToMove      = "Failed to move file"
	MsgAddedFile         = "Added file"
	MsgFileRemoved       = "File removed"
	MsgRemoveNotFound    = "Failed to remove file: Could not find file"
	MsgNoFilesUploaded   = "No files uploaded"
	msgExtensionRejected = "File extension \"%s\" is not supported"
	msgFilesValidated    = "%d file(s) validated"
)

// Outcome is the result of a pipeline operation. OK=false carries a user-facing
// reason in Message; Path is the stored file on a successful add.
type Outcome struct {
	OK      bool   `json:"ok"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func failed(msg string) Outcome { return Outcome{Message: msg} }

func extensionRejected(ext string) Outcome {
	return failed(fmt.Sprintf(msgExtensionRejected, ext))
}
