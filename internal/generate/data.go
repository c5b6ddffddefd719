package generate

// Static word lists for attribute fields. Kept deliberately small; the
// realism of the dataset comes from the distributions and reconciled
// amounts, not from name variety.

var firstNames = []string{
	"Emma", "Daan", "Julia", "Lucas", "Sophie", "Finn", "Mila", "Liam",
	"Lotte", "Noah", "Marie", "Felix", "Chloé", "Hugo", "Lucía", "Mateo",
	"Anna", "Jonas", "Elena", "Victor",
}

var lastNames = []string{
	"de Vries", "Jansen", "Bakker", "Visser", "Müller", "Schmidt",
	"Weber", "Fischer", "Martin", "Bernard", "Dubois", "Peeters",
	"Janssens", "García", "Martínez", "López", "van Dijk", "Meyer",
	"Laurent", "Moreau",
}

var citiesByCountry = map[string][]string{
	"NL": {"Amsterdam", "Rotterdam", "Utrecht", "Eindhoven", "Groningen"},
	"DE": {"Berlin", "Hamburg", "München", "Köln", "Frankfurt"},
	"FR": {"Paris", "Lyon", "Marseille", "Bordeaux", "Lille"},
	"BE": {"Brussel", "Antwerpen", "Gent", "Leuven", "Brugge"},
	"ES": {"Madrid", "Barcelona", "Valencia", "Sevilla", "Bilbao"},
}

var streets = []string{
	"Hoofdstraat", "Kerkweg", "Stationsplein", "Marktgasse", "Rue du Commerce",
	"Hauptstraße", "Avenida Mayor", "Nieuwstraat", "Bahnhofstraße", "Rue Lafayette",
}

var segments = []string{"consumer", "loyalty", "vip"}

var productWords = map[string][]string{
	"apparel":     {"Tee", "Hoodie", "Chino", "Blouse", "Cardigan", "Polo", "Dress"},
	"footwear":    {"Sneaker", "Loafer", "Boot", "Sandal", "Runner", "Derby"},
	"accessories": {"Belt", "Scarf", "Beanie", "Tote", "Wallet", "Cap"},
	"outerwear":   {"Parka", "Trench", "Puffer", "Raincoat", "Blazer"},
}

var productLines = []string{"Studio", "Nord", "Atelier", "Urban", "Coast", "Heritage"}

var storeChannels = []string{"flagship", "mall", "outlet"}

var mailDomains = map[string]string{
	"NL": "example.nl", "DE": "example.de", "FR": "example.fr",
	"BE": "example.be", "ES": "example.es",
}

// paymentAllowed restricts country-local payment methods: iDEAL only
// exists in the Dutch/Belgian market. Methods absent from the map are
// available everywhere.
var paymentAllowed = map[string]map[string]bool{
	"ideal": {"NL": true, "BE": true},
}

func paymentOK(method, country string) bool {
	allowed, restricted := paymentAllowed[method]
	if !restricted {
		return true
	}
	return allowed[country]
}
