package concepts

func init() {
	c = buildCatalog(seedConcepts())
}

func seedConcepts() []Concept {
	return []Concept{
		// Earning
		{ID: "gross_pay", Name: "Gross Pay", Strand: StrandEarning,
			Description: "Total earnings before deductions, from hourly wages or salary.",
			Keywords:    []string{"wage", "salary", "hourly"}},
		{ID: "payroll_taxes", Name: "Payroll Taxes", Strand: StrandEarning,
			Description:   "Income tax, Social Security and Medicare withheld from a paycheck.",
			Keywords:      []string{"withholding", "fica"},
			Prerequisites: []string{"gross_pay", "percentages"}},
		{ID: "net_pay", Name: "Net Pay", Strand: StrandEarning,
			Description:   "Take-home pay after taxes and deductions.",
			Keywords:      []string{"take home", "paycheck"},
			Prerequisites: []string{"gross_pay", "payroll_taxes"}},

		// Spending
		{ID: "percentages", Name: "Percentages", Strand: StrandSpending,
			Description: "Converting between percents, decimals and fractions of an amount.",
			Keywords:    []string{"percent"}},
		{ID: "sales_tax", Name: "Sales Tax", Strand: StrandSpending,
			Description:   "Computing the tax added to a purchase price.",
			Keywords:      []string{"tax rate", "receipt"},
			Prerequisites: []string{"percentages"}},
		{ID: "discounts", Name: "Discounts", Strand: StrandSpending,
			Description:   "Sale prices, percent-off and stacked discounts.",
			Keywords:      []string{"sale", "coupon", "percent off"},
			Prerequisites: []string{"percentages"}},
		{ID: "unit_price", Name: "Unit Price", Strand: StrandSpending,
			Description: "Comparing value by price per unit.",
			Keywords:    []string{"per ounce", "best buy"}},
		{ID: "tipping", Name: "Tipping", Strand: StrandSpending,
			Description:   "Calculating gratuity on a bill.",
			Keywords:      []string{"gratuity", "tip"},
			Prerequisites: []string{"percentages"}},
		{ID: "budgeting", Name: "Budgeting", Strand: StrandSpending,
			Description:   "Planning income against needs, wants and savings.",
			Keywords:      []string{"budget", "50/30/20", "needs", "wants"},
			Prerequisites: []string{"net_pay"}},

		// Saving
		{ID: "emergency_fund", Name: "Emergency Fund", Strand: StrandSaving,
			Description:   "Sizing savings to cover several months of expenses.",
			Keywords:      []string{"rainy day"},
			Prerequisites: []string{"budgeting"}},
		{ID: "simple_interest", Name: "Simple Interest", Strand: StrandSaving,
			Description:   "Interest computed on principal only.",
			Keywords:      []string{"principal", "rate", "prt"},
			Prerequisites: []string{"percentages"}},
		{ID: "compound_interest", Name: "Compound Interest", Strand: StrandSaving,
			Description:   "Interest earned on interest across compounding periods.",
			Keywords:      []string{"compounding", "apy"},
			Prerequisites: []string{"simple_interest"}},

		// Credit
		{ID: "credit_score", Name: "Credit Score", Strand: StrandCredit,
			Description: "What a credit score measures and what moves it.",
			Keywords:    []string{"fico", "credit report"}},
		{ID: "credit_cards", Name: "Credit Cards", Strand: StrandCredit,
			Description:   "APR, minimum payments and carrying a balance.",
			Keywords:      []string{"apr", "minimum payment", "balance"},
			Prerequisites: []string{"compound_interest", "credit_score"}},
		{ID: "loans", Name: "Loans", Strand: StrandCredit,
			Description:   "Total cost of borrowing across a loan term.",
			Keywords:      []string{"loan", "term", "borrow"},
			Prerequisites: []string{"simple_interest"}},

		// Investing
		{ID: "inflation", Name: "Inflation", Strand: StrandInvesting,
			Description:   "How rising prices erode purchasing power.",
			Keywords:      []string{"purchasing power", "cpi"},
			Prerequisites: []string{"percentages"}},
		{ID: "investing_basics", Name: "Investing Basics", Strand: StrandInvesting,
			Description:   "Stocks, bonds, diversification and risk versus return.",
			Keywords:      []string{"stocks", "bonds", "diversification"},
			Prerequisites: []string{"compound_interest", "inflation"}},
	}
}
