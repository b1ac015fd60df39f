package telemetry

import (
	"errors"
	"fmt"
	"strings"
)

const (
	NoOp ExporterType = iota
	GRPC
	HTTP
)

var errUnknownExporterType = errors.New("unknown exporter type")

// ExporterTypeFromString parses an exporter name. The empty string and
// "null" select NoOp.
func ExporterTypeFromString(exporterTypeStr string) (ExporterType, error) {
	switch strings.ToLower(exporterTypeStr) {
	case NoOp.String(), "null":
		return NoOp, nil
	case GRPC.String():
		return GRPC, nil
	case HTTP.String():
		return HTTP, nil
	default:
		return 0, fmt.Errorf("%w: %q", errUnknownExporterType, exporterTypeStr)
	}
}

type ExporterType byte

func (t ExporterType) String() string {
	switch t {
	case NoOp:
		return ""
	case GRPC:
		return "grpc"
	case HTTP:
		return "http"
	default:
		return "unknown"
	}
}

func (t ExporterType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *ExporterType) UnmarshalText(b []byte) error {
	exporterType, err := ExporterTypeFromString(string(b))
	if err != nil {
		return err
	}
	*t = exporterType
	return nil
}
