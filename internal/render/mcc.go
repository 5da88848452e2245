package render

// Merchant category names for the codes that actually show up on personal
// accounts. Anything else renders as the generic bucket.

var mccNames = map[int]string{
	4111: "Transportation",
	4121: "Taxi",
	4829: "Money Transfer",
	5411: "Groceries",
	5499: "Food Stores",
	5541: "Service Stations",
	5651: "Clothing",
	5732: "Electronics",
	5812: "Restaurants",
	5814: "Fast Food",
	5912: "Pharmacies",
	5941: "Sporting Goods",
	5999: "Retail",
	6011: "ATM Withdrawal",
	7230: "Beauty",
	7832: "Cinema",
	8062: "Hospitals",
	8999: "Services",
}

func MCCName(code int) string {
	if name, ok := mccNames[code]; ok {
		return name
	}
	return "Other"
}
