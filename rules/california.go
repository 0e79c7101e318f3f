package rules

// California returns the built-in California civil rule tables.
// Court-day rules skip weekends only; court holidays are not modeled.
func California() *Tables {
	t, err := NewTables("California", californiaDeadlines(), californiaLimitations())
	if err != nil {
		// static data, a failure here is a programming error
		panic(err)
	}
	return t
}

func californiaLimitations() map[string]LimitationRule {
	return map[string]LimitationRule{
		"personal_injury":            {Years: 2, Citation: "CCP § 335.1", Description: "Personal injury"},
		"wrongful_death":             {Years: 2, Citation: "CCP § 335.1", Description: "Wrongful death"},
		"products_liability":         {Years: 2, Citation: "CCP § 335.1", Description: "Products liability"},
		"premises_liability":         {Years: 2, Citation: "CCP § 335.1", Description: "Premises liability"},
		"medical_malpractice":        {Years: 3, Citation: "CCP § 340.5", Description: "Medical malpractice (3 years from injury, 1 year from discovery)"},
		"legal_malpractice":          {Years: 1, Citation: "CCP § 340.6", Description: "Legal malpractice (1 year from discovery, 4 years from act)"},
		"property_damage":            {Years: 3, Citation: "CCP § 338(c)", Description: "Injury to real or personal property"},
		"fraud":                      {Years: 3, Citation: "CCP § 338(d)", Description: "Fraud (runs from discovery)"},
		"breach_of_written_contract": {Years: 4, Citation: "CCP § 337(a)", Description: "Breach of written contract"},
		"breach_of_oral_contract":    {Years: 2, Citation: "CCP § 339", Description: "Breach of oral contract"},
		"defamation":                 {Years: 1, Citation: "CCP § 340(c)", Description: "Libel or slander"},
		"employment_discrimination":  {Years: 3, Citation: "Gov. Code § 12960(e)", Description: "FEHA administrative complaint"},
	}
}

func californiaDeadlines() map[string]DeadlineRule {
	return map[string]DeadlineRule{
		"answer_complaint":         {DayCount: 30, Mode: CalendarDays, Citation: "CCP § 412.20(a)(3)", Description: "Answer to complaint due"},
		"demurrer":                 {DayCount: 30, Mode: CalendarDays, Citation: "CCP § 430.40(a)", Description: "Demurrer due"},
		"discovery_responses":      {DayCount: 30, Mode: CalendarDays, Citation: "CCP §§ 2030.260(a), 2031.260(a), 2033.250(a)", Description: "Discovery responses due"},
		"motion_to_compel_further": {DayCount: 45, Mode: CalendarDays, Citation: "CCP §§ 2030.300(c), 2031.310(c), 2033.290(c)", Description: "Motion to compel further responses due"},
		"deposition_notice":        {DayCount: 10, Mode: CalendarDays, Citation: "CCP § 2025.270(a)", Description: "Earliest deposition date after notice"},
		"motion_notice":            {DayCount: 16, Mode: CourtDays, Citation: "CCP § 1005(b)", Description: "Motion hearing notice period"},
		"motion_opposition":        {DayCount: 9, Mode: CourtDays, Citation: "CCP § 1005(b)", Description: "Opposition to motion due"},
		"motion_reply":             {DayCount: 5, Mode: CourtDays, Citation: "CCP § 1005(b)", Description: "Reply brief due"},
		"msj_notice":               {DayCount: 75, Mode: CalendarDays, Citation: "CCP § 437c(a)(2)", Description: "Summary judgment notice period"},
		"msj_opposition":           {DayCount: 14, Mode: CalendarDays, Citation: "CCP § 437c(b)(2)", Description: "Summary judgment opposition due"},
		"supplemental_expert_list": {DayCount: 20, Mode: CalendarDays, Citation: "CCP § 2034.280(a)", Description: "Supplemental expert witness list due"},
		"new_trial_motion":         {DayCount: 15, Mode: CalendarDays, Citation: "CCP § 659(a)(2)", Description: "Notice of intention to move for new trial due"},
		"notice_of_appeal":         {DayCount: 60, Mode: CalendarDays, Citation: "CRC 8.104(a)(1)", Description: "Notice of appeal due"},
	}
}
