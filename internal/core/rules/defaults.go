package rules

// Tenure segments by months of tenure
var Tenure = MustBands("Loyal",
	Band{Max: 6, Label: "New"},
	Band{Max: 12, Inclusive: true, Label: "Developing"},
	Band{Max: 24, Inclusive: true, Label: "Established"},
)

// SaleSize buckets gross sales amount
var SaleSize = MustBands("Extra Large",
	Band{Max: 50, Label: "Small"},
	Band{Max: 200, Inclusive: true, Label: "Medium"},
	Band{Max: 500, Inclusive: true, Label: "Large"},
)

// Volatility buckets the absolute 24h price change in percent
var Volatility = MustBands("HIGH_VOLATILITY",
	Band{Max: 2, Inclusive: true, Label: "LOW_VOLATILITY"},
	Band{Max: 5, Inclusive: true, Label: "MEDIUM_VOLATILITY"},
)

// HeadlineLength buckets headline word counts
var HeadlineLength = MustBands("LONG",
	Band{Max: 5, Inclusive: true, Label: "SHORT"},
	Band{Max: 10, Inclusive: true, Label: "MEDIUM"},
)

// Recency buckets days since the last purchase
var Recency = MustBands("Inactive",
	Band{Max: 30, Inclusive: true, Label: "Active"},
	Band{Max: 90, Inclusive: true, Label: "Recent"},
	Band{Max: 180, Inclusive: true, Label: "Dormant"},
)

// ProductGroups maps product categories of the online store onto reporting groups
var ProductGroups = NewTable("Other",
	Rule{"Nest*", "Smart Home"},
	Rule{"Apparel", "Apparel"},
	Rule{"Headgear", "Apparel"},
	Rule{"Office", "Office"},
	Rule{"Notebooks*", "Office"},
	Rule{"Drinkware", "Drinkware"},
	Rule{"Bottles", "Drinkware"},
	Rule{"Bags", "Bags"},
	Rule{"Backpacks", "Bags"},
	Rule{"Lifestyle", "Lifestyle"},
	Rule{"Fun", "Lifestyle"},
	Rule{"Housewares", "Lifestyle"},
)

// NewsSources maps news outlet names onto source categories
var NewsSources = NewTable("OTHER",
	Rule{"*coindesk*", "CRYPTO"},
	Rule{"*cointelegraph*", "CRYPTO"},
	Rule{"*decrypt*", "CRYPTO"},
	Rule{"*bloomberg*", "FINANCIAL"},
	Rule{"*cnbc*", "FINANCIAL"},
	Rule{"*financial times*", "FINANCIAL"},
	Rule{"*reuters*", "MAINSTREAM"},
	Rule{"*bbc*", "MAINSTREAM"},
	Rule{"*techcrunch*", "TECH"},
	Rule{"*the verge*", "TECH"},
)

// TopicKeywords are matched case-insensitively against headline and description
var TopicKeywords = []string{"bitcoin", "btc", "crypto", "blockchain"}

// SegmentLabels is the closed label set of the clustering artifact, indexed by segment id
var SegmentLabels = []string{"Champions", "Loyal Customers", "Potential Loyalists", "At Risk", "Hibernating"}
