package errors

import (
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/agoraledger/forum/internal/platform/errors/i18n"
)

// Domain is the ErrorInfo domain attached to every forum status.
const Domain = "forum.agoraledger.dev"

// HandleError converts err into a gRPC status error. Forum errors keep their
// code as ErrorInfo.Reason and gain a message localized for locale (an
// Accept-Language value; empty selects the base locale). Any other error
// becomes an opaque Internal status.
func HandleError(err error, locale string) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if !errors.As(err, &appErr) {
		return status.Error(codes.Internal, "an unexpected error occurred")
	}

	catalog := i18n.GetCatalog(locale)
	grpcCode := appErr.Code.GRPCCode()
	st, detailErr := status.New(grpcCode, appErr.Message).WithDetails(
		&errdetails.ErrorInfo{
			Reason:   string(appErr.Code),
			Domain:   Domain,
			Metadata: appErr.Metadata,
		},
		&errdetails.LocalizedMessage{
			Locale:  catalog.Locale(),
			Message: catalog.Format(string(appErr.Code), appErr.Metadata),
		},
	)
	if detailErr != nil {
		return status.Error(grpcCode, appErr.Message)
	}
	return st.Err()
}
