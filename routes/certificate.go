package routes

import (
	"errors"
	"net/http"

	"github.com/DevPar45/eventlinkd/services"
	"github.com/DevPar45/eventlinkd/utils"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
)

// CompleteEvent issues certificates for every selected volunteer and marks the
// event completed. Partial failures are tolerated; the response carries the
// count of certificates actually issued.
func CompleteEvent(ctx iris.Context) {
	event, ok := loadOwnedEvent(ctx)
	if !ok {
		return
	}

	issued, err := services.Certificates.IssueForEvent(event.ID)
	if err != nil {
		if errors.Is(err, services.ErrEventNotFound) {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}
	utils.Audit(ctx, "event.complete", "event", event.ID, nil, iris.Map{"issued": issued})

	ctx.JSON(iris.Map{"issued": issued})
}

// ListCertificates returns the caller's certificates.
func ListCertificates(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.AccessToken)

	volunteerID, _ := ctx.URLParamInt("volunteerId")
	if volunteerID <= 0 || uint(volunteerID) != claims.ID {
		ctx.StopWithStatus(http.StatusForbidden)
		return
	}

	certificates, err := services.Certificates.ForVolunteer(uint(volunteerID))
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"certificates": certificates})
}

// VerifyCertificate is the public, unauthenticated lookup behind the QR code
// on every certificate. Unknown codes are a not-found result, not an error.
func VerifyCertificate(ctx iris.Context) {
	code := ctx.Params().Get("code")
	if code == "" {
		ctx.StatusCode(iris.StatusBadRequest)
		return
	}

	certificate, err := services.Certificates.Verify(code)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if certificate == nil {
		ctx.StatusCode(iris.StatusNotFound)
		ctx.JSON(iris.Map{"valid": false})
		return
	}

	ctx.JSON(iris.Map{"valid": true, "certificate": certificate})
}
