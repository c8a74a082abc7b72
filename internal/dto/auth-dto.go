package dto

type AuthResponse struct {
	Actor  string  `json:"actor"`
	Expiry float64 `json:"expiry"`
	Iat    float64 `json:"iat"`
}

type ActorTokenRequest struct {
	Actor string `json:"actor"`
}
