package remote

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/amiyamandal-dev/topalbums/internal/domain"
)

// classifyTransportError maps a failed round trip or body read onto the
// error taxonomy
func classifyTransportError(err error) *domain.FetchError {
	var netErr net.Error
	var dnsErr *net.DNSError

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, syscall.ETIMEDOUT),
		errors.As(err, &netErr) && netErr.Timeout():
		return domain.NewFetchError(domain.KindTimeout, err)

	case errors.Is(err, syscall.ENETUNREACH),
		errors.Is(err, syscall.ENETDOWN):
		return domain.NewFetchError(domain.KindNoConnectivity, err)

	case errors.As(err, &dnsErr),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.EHOSTUNREACH),
		errors.Is(err, syscall.EHOSTDOWN):
		return domain.NewFetchError(domain.KindUnreachableHost, err)

	case errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF):
		return domain.NewFetchError(domain.KindConnectionLost, err)

	default:
		return domain.NewFetchError(domain.KindUnknownError, err)
	}
}
