package utils

const (
	OrganizationName                      = "Lettora"
	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"

	TenantAccountType   = "tenant"
	LandlordAccountType = "landlord"
)
