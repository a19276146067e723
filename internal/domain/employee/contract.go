package employee

// Contract types drive how a payslip's gross is computed. CDI and CDD
// employees keep a fixed stored gross; journalier and honoraire employees
// are paid from worked units.
const (
	ContractCDI        = "CDI"
	ContractCDD        = "CDD"
	ContractJournalier = "journalier"
	ContractHonoraire  = "honoraire"
)

var KnownContractTypes = []string{ContractCDI, ContractCDD, ContractJournalier, ContractHonoraire}

func ValidContractType(contractType string) bool {
	for _, known := range KnownContractTypes {
		if contractType == known {
			return true
		}
	}
	return false
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)
