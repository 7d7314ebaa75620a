package messages

import "betterauth/internal/protocol/envelope"

// Flow names one request/response pair of the protocol.
type Flow string

const (
	FlowCreateAccount     Flow = "createAccount"
	FlowRecoverAccount    Flow = "recoverAccount"
	FlowDeleteAccount     Flow = "deleteAccount"
	FlowChangeRecoveryKey Flow = "changeRecoveryKey"
	FlowLinkDevice        Flow = "linkDevice"
	FlowUnlinkDevice      Flow = "unlinkDevice"
	FlowRotateDevice      Flow = "rotateDevice"
	FlowRequestSession    Flow = "requestSession"
	FlowCreateSession     Flow = "createSession"
	FlowRefreshSession    Flow = "refreshSession"
	FlowAccess            Flow = "access"
)

// DeviceAuthentication proves possession of a device key and commits to its
// successor.
type DeviceAuthentication struct {
	Device       string `json:"device"`
	Identity     string `json:"identity"`
	PublicKey    string `json:"publicKey"`
	RotationHash string `json:"rotationHash"`
}

// RecoveryCommitment is DeviceAuthentication plus a recovery hash.
type RecoveryCommitment struct {
	Device       string `json:"device"`
	Identity     string `json:"identity"`
	PublicKey    string `json:"publicKey"`
	RecoveryHash string `json:"recoveryHash"`
	RotationHash string `json:"rotationHash"`
}

// RecoveryAuthentication is presented when recovering with the recovery key.
type RecoveryAuthentication struct {
	Device       string `json:"device"`
	Identity     string `json:"identity"`
	PublicKey    string `json:"publicKey"`
	RecoveryHash string `json:"recoveryHash"`
	RecoveryKey  string `json:"recoveryKey"`
	RotationHash string `json:"rotationHash"`
}

// Empty is the response body of flows that return nothing.
type Empty struct{}

type CreateAccountRequest struct {
	Authentication RecoveryCommitment `json:"authentication"`
}

type RecoverAccountRequest struct {
	Authentication RecoveryAuthentication `json:"authentication"`
}

type DeleteAccountRequest struct {
	Authentication DeviceAuthentication `json:"authentication"`
}

type ChangeRecoveryKeyRequest struct {
	Authentication RecoveryCommitment `json:"authentication"`
}

// LinkContainerPayload is signed by the device being linked.
type LinkContainerPayload struct {
	Authentication DeviceAuthentication `json:"authentication"`
}

// LinkContainer travels out of band from the new device to an existing one.
type LinkContainer = envelope.Signed[LinkContainerPayload]

type LinkDeviceRequest struct {
	Authentication DeviceAuthentication `json:"authentication"`
	Link           LinkContainer        `json:"link"`
}

type UnlinkTarget struct {
	Device string `json:"device"`
}

type UnlinkDeviceRequest struct {
	Authentication DeviceAuthentication `json:"authentication"`
	Link           UnlinkTarget         `json:"link"`
}

type RotateDeviceRequest struct {
	Authentication DeviceAuthentication `json:"authentication"`
}

type SessionIdentity struct {
	Identity string `json:"identity"`
}

type RequestSessionRequest struct {
	Authentication SessionIdentity `json:"authentication"`
}

type SessionChallenge struct {
	Nonce string `json:"nonce"`
}

type RequestSessionResponse struct {
	Authentication SessionChallenge `json:"authentication"`
}

// SessionKey commits an access key and its successor.
type SessionKey struct {
	PublicKey    string `json:"publicKey"`
	RotationHash string `json:"rotationHash"`
}

type ChallengeAnswer struct {
	Device string `json:"device"`
	Nonce  string `json:"nonce"`
}

type CreateSessionRequest struct {
	Access         SessionKey      `json:"access"`
	Authentication ChallengeAnswer `json:"authentication"`
}

type IssuedToken struct {
	Token string `json:"token"`
}

type SessionResponse struct {
	Access IssuedToken `json:"access"`
}

type RefreshKey struct {
	PublicKey    string `json:"publicKey"`
	RotationHash string `json:"rotationHash"`
	Token        string `json:"token"`
}

type RefreshSessionRequest struct {
	Access RefreshKey `json:"access"`
}
