package connmgmt

// Connection types the harness creates.
const (
	TypeABAP  = "ABAP"
	TypeHANA  = "HANA_DB"
	TypeADLv2 = "ADL_V2"
)

// Connection is an entry of the connection management.
type Connection struct {
	ID                       string         `json:"id"`
	Description              string         `json:"description"`
	Type                     string         `json:"type"`
	CCMID                    string         `json:"ccmId,omitempty"`
	CCMTypeID                string         `json:"ccmTypeId,omitempty"`
	Tags                     []string       `json:"tags"`
	ContentData              map[string]any `json:"contentData"`
	LicenseRelevant          bool           `json:"licenseRelevant"`
	GatewayID                string         `json:"gatewayId"`
	ChangedNote              string         `json:"changedNote"`
	CloudConnectorLocationID string         `json:"cloudConnectorLocationId"`
	Owner                    string         `json:"owner,omitempty"`
	ReadOnly                 bool           `json:"readOnly,omitempty"`
}

// NewConnection creates an empty connection with the given id.
func NewConnection(id, connectionType string) *Connection {
	return &Connection{
		ID:          id,
		Type:        connectionType,
		Tags:        []string{},
		ContentData: map[string]any{},
	}
}

// ABAPConnectionData describes an ABAP system reached over RFC.
type ABAPConnectionData struct {
	Name     string
	User     string
	Password string
	Client   string
	Sysnr    string
	Ashost   string
	Sysid    string
}

// HANAConnectionData describes a HANA database.
type HANAConnectionData struct {
	Name     string
	Address  string
	Port     int
	User     string
	Password string
}

// DatalakeConnectionData describes an Azure Data Lake Gen2 container.
type DatalakeConnectionData struct {
	Name        string
	AccountName string
	AccountKey  string
	Container   string
}

func newLicensedConnection(id, connectionType string) *Connection {
	c := NewConnection(id, connectionType)
	c.LicenseRelevant = true
	return c
}

// NewABAPConnection builds an RFC connection without load balancing and with basic authentication.
func NewABAPConnection(d ABAPConnectionData) *Connection {
	c := newLicensedConnection(d.Name, TypeABAP)
	c.ContentData = map[string]any{
		"protocol":       "RFC",
		"loadbalancing":  "Without Load Balancing",
		"sysid":          d.Sysid,
		"ashost":         d.Ashost,
		"sysnr":          d.Sysnr,
		"client":         d.Client,
		"authentication": "Basic",
		"enablesnc":      false,
		"user":           d.User,
		"password":       d.Password,
	}
	return c
}

// NewHANAConnection builds a TLS connection that does not validate the certificate.
func NewHANAConnection(d HANAConnectionData) *Connection {
	c := newLicensedConnection(d.Name, TypeHANA)
	c.ContentData = map[string]any{
		"host":                d.Address,
		"port":                d.Port,
		"additionalHosts":     []string{},
		"user":                d.User,
		"password":            d.Password,
		"ignoreList":          []string{},
		"useTLS":              true,
		"useProxy":            false,
		"validateCertificate": false,
	}
	return c
}

// NewADLv2Connection builds a shared-key connection rooted at the container.
func NewADLv2Connection(d DatalakeConnectionData) *Connection {
	c := newLicensedConnection(d.Name, TypeADLv2)
	c.ContentData = map[string]any{
		"authorizationMethod": "shared_key",
		"sharedKeys": map[string]any{
			"accountName": d.AccountName,
			"accountKey":  d.AccountKey,
		},
		"endpointSuffix": "core.windows.net",
		"rootPath":       d.Container,
	}
	return c
}
