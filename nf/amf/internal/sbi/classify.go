package sbi

import "strings"

// ServiceType is the SBI service prefix a request was classified into.
type ServiceType string

const (
	ServiceNamfComm     ServiceType = "namf-comm"
	ServiceNausfAuth    ServiceType = "nausf-auth"
	ServiceNsmfPduSess  ServiceType = "nsmf-pdusession"
	ServiceNpcfAMPolicy ServiceType = "npcf-am-policy"
	ServiceNnrfNFM      ServiceType = "nnrf-nfm"
	ServiceNnrfDisc     ServiceType = "nnrf-disc"
)

// MessageType is the operation a request was classified into within
// its service.
type MessageType string

const (
	MsgUeContextCreate  MessageType = "UE_CONTEXT_CREATE_REQUEST"
	MsgUeContextUpdate  MessageType = "UE_CONTEXT_UPDATE_REQUEST"
	MsgUeContextRelease MessageType = "UE_CONTEXT_RELEASE_REQUEST"
	MsgUeAuthentication MessageType = "UE_AUTHENTICATION_REQUEST"
	MsgPduSessionCreate MessageType = "PDU_SESSION_CREATE_REQUEST"
	MsgPduSessionRelease MessageType = "PDU_SESSION_RELEASE_REQUEST"
	MsgAMPolicyControl  MessageType = "AM_POLICY_CONTROL_REQUEST"
	MsgNrfManagement    MessageType = "NRF_MANAGEMENT_REQUEST"
	MsgNrfDiscovery     MessageType = "NRF_DISCOVERY_REQUEST"
)

// Classification is the result of classifying a request URI + method.
type Classification struct {
	Service ServiceType
	Message MessageType
	Matched bool // false when the URI matched none of the six known services
	Compat  bool // true when Matched is false because of the /registrations
	// or /deregistrations compatibility mapping rather than a wholly
	// unrecognized path; the two are governed by separate config flags.
}

// Classify performs substring-based, case-sensitive classification of a
// request method and URI. Unknown paths default to namf-comm/
// UeContextCreate, a forgiving behavior the caller can disable with
// strict mode.
func Classify(method, uri string) Classification {
	switch {
	case strings.Contains(uri, "/namf-comm"):
		return Classification{Service: ServiceNamfComm, Message: classifyNamfComm(method, uri), Matched: true}
	case strings.Contains(uri, "/nausf-auth"):
		return Classification{Service: ServiceNausfAuth, Message: MsgUeAuthentication, Matched: true}
	case strings.Contains(uri, "/nsmf-pdusession"):
		return Classification{Service: ServiceNsmfPduSess, Message: classifyPduSession(method, uri), Matched: true}
	case strings.Contains(uri, "/npcf-am-policy"):
		return Classification{Service: ServiceNpcfAMPolicy, Message: MsgAMPolicyControl, Matched: true}
	case strings.Contains(uri, "/nnrf-nfm"):
		return Classification{Service: ServiceNnrfNFM, Message: MsgNrfManagement, Matched: true}
	case strings.Contains(uri, "/nnrf-disc"):
		return Classification{Service: ServiceNnrfDisc, Message: MsgNrfDiscovery, Matched: true}

	// Unknown /registrations and /deregistrations are treated as
	// namf-comm UE context create/release under the compatibility flag
	// handled by the caller (with that flag off they are answered 404,
	// whatever strict mode says).
	case strings.Contains(uri, "/registrations"):
		return Classification{Service: ServiceNamfComm, Message: MsgUeContextCreate, Matched: false, Compat: true}
	case strings.Contains(uri, "/deregistrations"):
		return Classification{Service: ServiceNamfComm, Message: MsgUeContextRelease, Matched: false, Compat: true}

	default:
		return Classification{Service: ServiceNamfComm, Message: MsgUeContextCreate, Matched: false}
	}
}

func classifyNamfComm(method, uri string) MessageType {
	if !strings.Contains(uri, "/ue-contexts") {
		return MsgUeContextCreate
	}
	switch method {
	case "POST":
		return MsgUeContextCreate
	case "PUT":
		return MsgUeContextUpdate
	case "DELETE":
		return MsgUeContextRelease
	default:
		return MsgUeContextCreate
	}
}

func classifyPduSession(method, uri string) MessageType {
	if !strings.Contains(uri, "/pdu-sessions") && !strings.Contains(uri, "/sm-contexts") {
		return MsgPduSessionCreate
	}
	if method == "DELETE" {
		return MsgPduSessionRelease
	}
	return MsgPduSessionCreate
}
