package llm

// InstructionPrompt is the fixed instruction sent with every image. The
// reply parser's acceptance grammar is pinned to the two formats it
// demands; change them together.
const InstructionPrompt = "Analyze this image and return ONLY a filename. NO explanation. NO reasoning. NO extra text.\n" +
	"\n" +
	"FORMAT:\n" +
	"Documents: YYYY-MM-DD - Sender - Three Word Summary\n" +
	"Photos: Year - Subject - Location\n" +
	"\n" +
	"EXAMPLES:\n" +
	"Electric bill from Florida Power dated Dec 23, 2025 → 2025-12-23 - FloridaPower - Electric Bill\n" +
	"Marriage certificate from county clerk dated Jan 15, 2024 → 2024-01-15 - County Clerk - Marriage Certificate\n" +
	"Medical form from hospital with no date → 0000-00-00 - Hospital Name - Medical Form\n" +
	"Family photo at beach from 2010 → 2010 - Family Beach - Summer Vacation\n" +
	"Old photo with unknown year → 0000 - Person Name - Location Description\n" +
	"\n" +
	"Return ONLY the filename:"
