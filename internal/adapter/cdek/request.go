package cdek

// The CDEK order payload carries mostly fixed values: card deliveries
// always ship under the same tariff, sender, and parcel dimensions.

type phone struct {
	Number string `json:"number"`
}

type sender struct {
	Company        string  `json:"company"`
	Name           string  `json:"name"`
	ContragentType string  `json:"contragent_type"`
	Phones         []phone `json:"phones"`
}

type recipient struct {
	Name   string  `json:"name"`
	Phones []phone `json:"phones"`
}

type toLocation struct {
	Code      int     `json:"code"`
	City      string  `json:"city"`
	FiasGUID  string  `json:"fias_guid"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Address   string  `json:"address"`
}

type pkg struct {
	Number  string  `json:"number"`
	Weight  float64 `json:"weight"`
	Length  int     `json:"length"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Comment string  `json:"comment"`
}

type orderBody struct {
	Type            int        `json:"type"`
	TariffCode      int        `json:"tariff_code"`
	ShipmentPoint   string     `json:"shipment_point"`
	Sender          sender     `json:"sender"`
	Recipient       recipient  `json:"recipient"`
	ToLocation      toLocation `json:"to_location"`
	Packages        []pkg      `json:"packages"`
	IsClientReturn  bool       `json:"is_client_return"`
	HasReverseOrder bool       `json:"has_reverse_order"`
	DeveloperKey    string     `json:"developer_key"`
}

func (c *Client) newOrderBody(req *OrderRequest, locationCode int, city, fiasGUID string) *orderBody {
	return &orderBody{
		Type:          2,
		TariffCode:    482,
		ShipmentPoint: req.ShipmentPoint,
		Sender: sender{
			Company:        c.senderName,
			Name:           c.senderName,
			ContragentType: "LEGAL_ENTITY",
			Phones:         []phone{{Number: c.senderPhone}},
		},
		Recipient: recipient{
			Name:   req.RecipientName,
			Phones: []phone{{Number: req.RecipientPhone}},
		},
		ToLocation: toLocation{
			Code:      locationCode,
			City:      city,
			FiasGUID:  fiasGUID,
			Longitude: req.Longitude,
			Latitude:  req.Latitude,
			Address:   req.Address,
		},
		Packages: []pkg{{
			Number:  req.PackageNumber,
			Weight:  0.1,
			Length:  1,
			Width:   1,
			Height:  1,
			Comment: "card",
		}},
		DeveloperKey: c.developerKey,
	}
}
