package cmd

import (
	"errors"
	"fmt"
	"os"

	gferrors "github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/astrasemi/qualitylens/internal/insight/client"
)

// ExitWithCode logs msg with the foundry exit code metadata and exits.
// logger may be nil for failures that happen before logging is set up.
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	info, known := foundry.GetExitCodeInfo(exitCode)
	code := int(exitCode)
	if known {
		code = info.Code
	}

	if logger == nil || !known {
		writeFatal(msg, err)
		if known {
			fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
		}
		os.Exit(code)
	}

	fields, cause := envelopeFields(err)
	fields = append(fields,
		zap.Int("exit_code", info.Code),
		zap.String("exit_name", info.Name),
		zap.String("exit_category", info.Category),
		zap.Error(cause),
	)
	logger.Error(msg, fields...)
	os.Exit(code)
}

// ExitWithCodeStderr writes to stderr without a logger.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	ExitWithCode(nil, exitCode, msg, err)
}

// envelopeFields unpacks a gofulmen envelope into log fields and returns
// the error worth logging: the wrapped original when there is one.
func envelopeFields(err error) ([]zap.Field, error) {
	var envelope *gferrors.ErrorEnvelope
	if !errors.As(err, &envelope) {
		return nil, err
	}
	fields := []zap.Field{
		zap.String("error_code", envelope.Code),
		zap.String("error_message", envelope.Message),
		zap.String("correlation_id", envelope.CorrelationID),
	}
	if envelope.Context != nil {
		fields = append(fields, zap.Any("error_context", envelope.Context))
	}
	if original, ok := envelope.Original.(error); ok {
		return fields, original
	}
	return fields, err
}

func writeFatal(msg string, err error) {
	var envelope *gferrors.ErrorEnvelope
	switch {
	case err == nil:
		fmt.Fprintf(os.Stderr, "FATAL: %s\n", msg)
	case errors.As(err, &envelope):
		fmt.Fprintf(os.Stderr, "FATAL: %s [%s]: %s (correlation: %s)\n",
			msg, envelope.Code, envelope.Message, envelope.CorrelationID)
		if original, ok := envelope.Original.(error); ok {
			fmt.Fprintf(os.Stderr, "Underlying error: %v\n", original)
		}
	default:
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
	}
}

// insightExitCode maps a failed insight cycle to a foundry exit code. Only
// an unreachable endpoint gets its own code.
func insightExitCode(err error) foundry.ExitCode {
	var terr *client.TransportError
	if errors.As(err, &terr) && terr.StatusCode == 0 {
		return foundry.ExitExternalServiceUnavailable
	}
	return foundry.ExitFailure
}
