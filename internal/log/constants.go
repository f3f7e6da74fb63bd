package log

const (
	KeyAppName            = "app"
	KeyRequestID          = "requestId"
	KeyProcess            = "process"
	KeyTag                = "tag"
	KeyConfig             = "config"
	KeyEmail              = "email"
	KeyToken              = "token"
	KeyUserID             = "userId"
	KeySessionCartID      = "sessionCartId"
	KeyCartID             = "cartId"
	KeyCartItems          = "cartItems"
	KeyOrderID            = "orderId"
	KeyOrderItems         = "orderItems"
	KeyProductID          = "productId"
	KeyProductSlug        = "productSlug"
	KeyProductStock       = "productStock"
	KeyQuantity           = "quantity"
	KeyPaymentID          = "paymentId"
	KeyPaymentStatus      = "paymentStatus"
	KeyCacheKey           = "cacheKey"
	KeyDbURL              = "dbUrl"
	KeyRequestBody        = "requestBody"
	KeyRequestHeader      = "requestHeader"
	KeyRequestHost        = "host"
	KeyRequestIp          = "requesterIP"
	KeyRequestMethod      = "requestMethod"
	KeyRequestProcessedAt = "requestProcessedAt"
	KeyRequestURI         = "requestURI"
	KeyRequestURL         = "requestURL"
	KeyTraceID            = "traceId"
	KeySpanID             = "spanId"
)
