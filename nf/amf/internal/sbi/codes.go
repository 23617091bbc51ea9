package sbi

// Numeric codes mirror the original SbiServiceType/SbiMessageType/HttpMethod
// enum ordinals so the processedMessage body is bit-for-bit comparable to a
// deployment that still talks to the original simulator during a migration.

var serviceCodes = map[ServiceType]int{
	ServiceNamfComm:     0,
	ServiceNsmfPduSess:  4,
	ServiceNausfAuth:    7,
	ServiceNpcfAMPolicy: 8,
	ServiceNnrfNFM:      9,
	ServiceNnrfDisc:     10,
}

var messageCodes = map[MessageType]int{
	MsgUeContextCreate:   0,
	MsgUeContextUpdate:   2,
	MsgUeContextRelease:  4,
	MsgUeAuthentication:  6,
	MsgPduSessionCreate:  10,
	MsgPduSessionRelease: 14,
	MsgAMPolicyControl:   16,
	MsgNrfManagement:     28,
	MsgNrfDiscovery:      36,
}

var methodCodes = map[string]int{
	"GET":    0,
	"POST":   1,
	"PUT":    2,
	"DELETE": 3,
	"PATCH":  4,
}

func serviceCode(s ServiceType) int { return serviceCodes[s] }
func messageCode(m MessageType) int { return messageCodes[m] }
func methodCode(m string) int       { return methodCodes[m] }
