package notification

var (
	EventNotFound         = Notification{Key: "EventNotFound", Message: "event not found", Kind: KindNotFound}
	EventNameAlreadyTaken = Notification{Key: "EventNameAlreadyTaken", Message: "an event with this name already exists", Kind: KindConflict}
	EventUnavailable      = Notification{Key: "EventUnavailable", Message: "event is not active or not approved", Kind: KindValidation}
	InsufficientInventory = Notification{Key: "InsufficientInventory", Message: "not enough tickets available", Kind: KindConflict}
	EventAlreadyActive    = Notification{Key: "EventAlreadyActive", Message: "event is already active", Kind: KindValidation}
	EventAlreadyInactive  = Notification{Key: "EventAlreadyInactive", Message: "event is already inactive", Kind: KindValidation}
	EventDeleteConflict   = Notification{Key: "EventDeleteConflict", Message: "event has orders and cannot be deleted", Kind: KindConflict}
	InvalidPromoter       = Notification{Key: "InvalidPromoter", Message: "invalid promoter", Kind: KindValidation}
	TicketAmountBelowSold = Notification{Key: "TicketAmountBelowSold", Message: "ticket amount is lower than the tickets already sold", Kind: KindValidation}

	OrderNotFound        = Notification{Key: "OrderNotFound", Message: "order not found", Kind: KindNotFound}
	OrderNotCancellable  = Notification{Key: "OrderNotCancellable", Message: "order can no longer be cancelled", Kind: KindConflict}
	EventAlreadyHappened = Notification{Key: "EventAlreadyHappened", Message: "event date has already passed", Kind: KindValidation}

	UserNotFound          = Notification{Key: "UserNotFound", Message: "user not found", Kind: KindNotFound}
	UsernameAlreadyTaken  = Notification{Key: "UsernameAlreadyTaken", Message: "username is already in use", Kind: KindConflict}
	InvalidCredentials    = Notification{Key: "InvalidCredentials", Message: "invalid username or password", Kind: KindUnauthorized}
	UserInactive          = Notification{Key: "UserInactive", Message: "user is not active", Kind: KindUnauthorized}
	InvalidAccessToken    = Notification{Key: "InvalidAccessToken", Message: "invalid access token", Kind: KindUnauthorized}
	InvalidRefreshToken   = Notification{Key: "InvalidRefreshToken", Message: "invalid refresh token", Kind: KindUnauthorized}
	RefreshTokenExpired   = Notification{Key: "RefreshTokenExpired", Message: "refresh token has expired", Kind: KindUnauthorized}
	WrongCurrentPassword  = Notification{Key: "WrongCurrentPassword", Message: "current password is incorrect", Kind: KindValidation}
	UserAlreadyActive     = Notification{Key: "UserAlreadyActive", Message: "user is already active", Kind: KindValidation}
	UserAlreadyInactive   = Notification{Key: "UserAlreadyInactive", Message: "user is already inactive", Kind: KindValidation}
	UserIsNotPromoter     = Notification{Key: "UserIsNotPromoter", Message: "user is not a promoter", Kind: KindValidation}
	PromoterAlreadyActive = Notification{Key: "PromoterAlreadyActive", Message: "promoter is already approved", Kind: KindValidation}

	MissingAccessToken = Notification{Key: "MissingAccessToken", Message: "bearer token is required", Kind: KindUnauthorized}
	AccessDenied       = Notification{Key: "AccessDenied", Message: "insufficient permissions", Kind: KindForbidden}
)
