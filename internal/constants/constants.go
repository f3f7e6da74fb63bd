package constants

const (
	AppStorefront = "storefront-service"

	AudienceStorefront = "storefront"

	SessionCartCookie = "sessionCartId"

	PathCart            = "/cart"
	PathShippingAddress = "/shipping-address"
	PathPaymentMethod   = "/payment-method"
	PathOrder           = "/order"
)
