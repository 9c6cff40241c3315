package model

// ResultKind tags the elements of a byte stream.
type ResultKind int

const (
	ResultProgress ResultKind = iota
	ResultError
	ResultSuccess
)

// DownloadResult is one element of a download stream. A stream yields any number
// of progress results and then exactly one error or success.
type DownloadResult struct {
	Kind     ResultKind
	Progress float64
	Err      error
	Data     []byte
}

func ProgressResult(p float64) DownloadResult {
	return DownloadResult{Kind: ResultProgress, Progress: p}
}

func ErrorResult(err error) DownloadResult {
	return DownloadResult{Kind: ResultError, Err: err}
}

func SuccessResult(data []byte) DownloadResult {
	return DownloadResult{Kind: ResultSuccess, Data: data}
}
