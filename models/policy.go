package models

// PolicyType 政策类别 / 用户意图标签（封闭集合）
type PolicyType string

const (
	PolicyTypeNone       PolicyType = "" // 未识别出意图
	PolicyTypeEmployment PolicyType = "employment"
	PolicyTypeHousing    PolicyType = "housing"
	PolicyTypeStartup    PolicyType = "startup"
	PolicyTypeFinance    PolicyType = "finance"
	PolicyTypeTax        PolicyType = "tax"
	PolicyTypeEducation  PolicyType = "education"
	PolicyTypeOther      PolicyType = "other"
)

// PolicyTypes 所有合法标签（不含 none）
var PolicyTypes = []PolicyType{
	PolicyTypeEmployment,
	PolicyTypeHousing,
	PolicyTypeStartup,
	PolicyTypeFinance,
	PolicyTypeTax,
	PolicyTypeEducation,
	PolicyTypeOther,
}

// Policy 已通过资格过滤的政策快照，来自 policies 表
// 核心逻辑只读取源字段，只会填充派生字段 PolicyType
type Policy struct {
	ID              int64    `json:"id"`
	Name            string   `json:"plcyNm"`
	CategoryLarge   string   `json:"lclsfNm"`
	CategoryMid     string   `json:"mclsfNm"`
	Support         string   `json:"plcySprtCn"`
	Description     string   `json:"plcyExplnCn"`
	ProvisionMethod string   `json:"plcyPvsnMthdCd"`
	Regions         []string `json:"zipCd"`
	AgeLimit        string   `json:"sprtTrgtAgeLmtYn"` // "N" 表示不限年龄
	MinAge          int      `json:"sprtTrgtMinAge"`
	MaxAge          int      `json:"sprtTrgtMaxAge"`
	IncomeType      string   `json:"earnCndSeCd"` // 무관/제한없음/空 表示不限收入
	MinIncome       int      `json:"earnMinAmt"`
	MaxIncome       int      `json:"earnMaxAmt"`
	Keywords        []string `json:"plcyKywdNm"`
	Marriage        []string `json:"mrgSttsCd,omitempty"`
	School          []string `json:"schoolCd,omitempty"`
	Job             []string `json:"jobCd,omitempty"`
	Major           []string `json:"plcyMajorCd,omitempty"`
	SpecialBiz      []string `json:"sbizCd,omitempty"`

	PolicyType PolicyType `json:"policy_type"` // 派生字段
}

// AgeUnlimited 是否不限年龄
func (p Policy) AgeUnlimited() bool {
	return p.AgeLimit == "" || p.AgeLimit == "N" || (p.MinAge == 0 && p.MaxAge == 0)
}

// IncomeUnconditioned 是否不限收入
func (p Policy) IncomeUnconditioned() bool {
	switch p.IncomeType {
	case "", "무관", "제한없음":
		return true
	}
	return false
}
