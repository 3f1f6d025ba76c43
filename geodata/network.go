package geodata

import (
	"sort"
	"strings"

	"github.com/samber/lo"
)

// Region is one of the five static geographic zones of the network.
type Region string

const (
	RegionEast        Region = "EAST"
	RegionWestNorth   Region = "WEST_NORTH"
	RegionWestCentral Region = "WEST_CENTRAL"
	RegionWestSouth   Region = "WEST_SOUTH"
	RegionPingtung    Region = "PINGTUNG"

	// RegionUnknown is returned when a station cannot be classified.
	RegionUnknown Region = ""
)

// RegionPair is an unordered pair of regions, normalized so that
// PairOf(a, b) == PairOf(b, a).
type RegionPair struct {
	A, B Region
}

// PairOf normalizes two regions into a RegionPair.
func PairOf(a, b Region) RegionPair {
	if b < a {
		a, b = b, a
	}
	return RegionPair{A: a, B: b}
}

var majorHubs = map[string]string{
	"基隆": "0900", "七堵": "0930", "南港": "0980", "松山": "0990", "臺北": "1000",
	"板橋": "1020", "樹林": "1040", "桃園": "1080", "中壢": "1100", "新竹": "1210",
	"竹南": "1250", "苗栗": "3160", "豐原": "3230", "臺中": "3300", "彰化": "3360",
	"員林": "3390", "斗六": "3470", "嘉義": "4080", "新營": "4120", "臺南": "4220",
	"新左營": "4340", "高雄": "4400", "屏東": "5000", "潮州": "5050", "宜蘭": "7190",
	"蘇澳新": "7130", "花蓮": "7000", "玉里": "6110", "臺東": "6000",
}

var hubRegions = map[Region][]string{
	RegionEast:        {"7190", "7130", "7000", "6110", "6000"},
	RegionWestNorth:   {"0900", "0930", "0980", "0990", "1000", "1020", "1040", "1080", "1100"},
	RegionWestCentral: {"1210", "1250", "3160", "3230", "3300", "3360", "3390"},
	RegionWestSouth:   {"3470", "4080", "4120", "4220", "4340", "4400"},
	RegionPingtung:    {"5000", "5050"},
}

// junctionHubs lists, per adjacent region pair, the hubs that are plausible
// single-transfer points between the two regions. Same-region pairs and
// pairs that never share a sensible transfer point have no entry.
var junctionHubs = map[RegionPair][]string{
	PairOf(RegionEast, RegionWestNorth):   {"0930", "0980", "0990", "1000", "1020"},
	PairOf(RegionEast, RegionWestCentral): {"0930", "0980", "0990", "1000", "1020"},
	PairOf(RegionEast, RegionWestSouth):   {"5000", "5050"},
	PairOf(RegionEast, RegionPingtung):    {"5000", "5050"},
}

// cityCodes maps a city name to the provider's city code. Both the 臺 and 台
// spellings are listed where both occur in the wild.
var cityCodes = map[string]string{
	"臺北市": "A", "台北市": "A", "臺中市": "B", "台中市": "B", "基隆市": "C",
	"臺南市": "D", "高雄市": "E", "新北市": "F", "宜蘭縣": "G", "桃園市": "H",
	"嘉義市": "I", "新竹縣": "J", "苗栗縣": "K", "南投縣": "M", "彰化縣": "N",
	"新竹市": "O", "雲林縣": "P", "嘉義縣": "Q", "屏東縣": "T", "花蓮縣": "U",
	"臺東縣": "V", "台東縣": "V",
}

// Network is the immutable geography used by the route search. Build it once
// with NewNetwork and inject it; it must not be mutated afterwards.
type Network struct {
	hubNameByCode map[string]string
	hubCodes      []string
	regionByHub   map[string]Region
	junctions     map[RegionPair][]string
	cityCodeByCty map[string]string
	ctyByCityCode map[string]string
}

// NewNetwork builds the read-only network tables.
func NewNetwork() *Network {
	n := &Network{
		hubNameByCode: lo.Invert(majorHubs),
		regionByHub:   map[string]Region{},
		junctions:     junctionHubs,
		cityCodeByCty: cityCodes,
		ctyByCityCode: map[string]string{},
	}
	for region, codes := range hubRegions {
		for _, code := range codes {
			n.regionByHub[code] = region
		}
	}
	n.hubCodes = lo.Keys(n.hubNameByCode)
	// stable code order so nearest-hub tie-breaks are deterministic
	sort.Strings(n.hubCodes)
	for city, code := range cityCodes {
		// prefer the canonical 臺 spelling over the legacy 台 variant
		if _, ok := n.ctyByCityCode[code]; !ok || !strings.HasPrefix(city, "台") {
			n.ctyByCityCode[code] = city
		}
	}
	return n
}

// HubCodes returns the station codes of all major hubs.
func (n *Network) HubCodes() []string { return n.hubCodes }

// IsHub reports whether code is a major hub.
func (n *Network) IsHub(code string) bool {
	_, ok := n.hubNameByCode[code]
	return ok
}

// HubName returns the name of a major hub station.
func (n *Network) HubName(code string) (string, bool) {
	name, ok := n.hubNameByCode[code]
	return name, ok
}

// RegionOfHub returns the statically assigned region of a major hub.
func (n *Network) RegionOfHub(code string) (Region, bool) {
	region, ok := n.regionByHub[code]
	return region, ok
}

// JunctionHubs returns the ordered hub candidates for travel between two
// regions, or nil when the pair has no junction entry.
func (n *Network) JunctionHubs(a, b Region) []string {
	return n.junctions[PairOf(a, b)]
}

// CityCode resolves a city name (either spelling variant) to its provider
// city code.
func (n *Network) CityCode(city string) (string, bool) {
	code, ok := n.cityCodeByCty[city]
	return code, ok
}

// Cities returns every known city code with its canonical name.
func (n *Network) Cities() map[string]string {
	out := make(map[string]string, len(n.ctyByCityCode))
	for code, city := range n.ctyByCityCode {
		out[code] = city
	}
	return out
}
