package wizard

type Stage int

const (
	StagePersonalInfo Stage = iota
	StageLoanDetails
	StageDocuments
	StageReviewSubmit
)

const stageCount = 4

var stageNames = [stageCount]string{"PERSONAL_INFO", "LOAN_DETAILS", "DOCUMENTS", "REVIEW_SUBMIT"}

var stageTitles = [stageCount]string{"Personal Info", "Loan Details", "Documents", "Review & Submit"}

var stageHelp = [stageCount]string{
	"Provide your full legal name and select your profession from the dropdown. This information helps us verify your identity and assess your eligibility.",
	"Specify the loan purpose, amount, tenure, and PAN card details. Ensure your PAN card is valid as it determines your credit score, which impacts loan approval.",
	"Upload your latest PF Account Statement and Salary Slip in PDF format (max 5MB each). These documents are required to verify your financial status.",
	"Carefully review all entered details and uploaded documents. Once submitted, you cannot edit your application. Ensure everything is accurate before proceeding.",
}

func (s Stage) valid() bool {
	return s >= 0 && s < stageCount
}

func (s Stage) String() string {
	if !s.valid() {
		return "UNKNOWN"
	}
	return stageNames[s]
}

func (s Stage) Title() string {
	if !s.valid() {
		return ""
	}
	return stageTitles[s]
}

func (s Stage) Help() string {
	if !s.valid() {
		return ""
	}
	return stageHelp[s]
}

func (s Stage) Last() bool {
	return s == StageReviewSubmit
}

func Stages() []Stage {
	return []Stage{StagePersonalInfo, StageLoanDetails, StageDocuments, StageReviewSubmit}
}
