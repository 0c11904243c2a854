package constant

import "errors"

// Business error sentinels for the model lifecycle control plane, the
// deployed-replica write coordinator, and the semantic response cache.
// Each carries a stable numeric code so clients can match on
// response.code instead of parsing the message.
var (
	ErrDuplicateModelName      = errors.New("1001")
	ErrUploadAlreadyInFlight   = errors.New("1002")
	ErrDuplicateDeploymentName = errors.New("1003")
	ErrCyclicModelDependency   = errors.New("1004")
	ErrModelNotFound           = errors.New("1005")
	ErrActionNotPermitted      = errors.New("1006")
	ErrMissingFieldsInRequest  = errors.New("1007")
	ErrModelNotComplete        = errors.New("1008")
	ErrDeploymentsExist        = errors.New("1009")
	ErrQuotaExceeded           = errors.New("1010")
	ErrNoWriterLeaseReachable  = errors.New("1011")
	ErrUnverifiedAccount       = errors.New("1012")
	ErrInvalidCredentials      = errors.New("1013")
	ErrInternalServer          = errors.New("1014")

	ErrUserNotFound            = errors.New("1015")
	ErrTeamNotFound            = errors.New("1016")
	ErrDeploymentNotFound      = errors.New("1017")
	ErrInvalidUploadToken      = errors.New("1018")
	ErrUploadTokenExpired      = errors.New("1019")
	ErrChunkOutOfOrder         = errors.New("1020")
	ErrArtifactNotComplete     = errors.New("1021")
	ErrInvalidResetCode        = errors.New("1022")
	ErrResetCodeExpired        = errors.New("1023")
	ErrDuplicateEmail          = errors.New("1024")
	ErrInvalidCacheInsertToken = errors.New("1025")
	ErrCacheEntryNotFound      = errors.New("1026")
	ErrJobNotFound             = errors.New("1027")
	ErrInvalidJobTransition    = errors.New("1028")
)
