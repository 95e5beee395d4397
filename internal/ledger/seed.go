package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultAccountName is the single account created on first run.
const DefaultAccountName = "默认账户"

// BuiltinExpenseCategories are seeded once and cannot be deleted.
var BuiltinExpenseCategories = []string{
	"餐饮", "借款", "通讯", "购物", "steam", "果蔬", "住房", "日常",
	"交通", "还款", "娱乐", "基金", "日用", "旅行", "办公", "医疗",
	"学习", "发红包", "美容", "书籍", "其他", "捐款", "运动", "股票",
	"红包", "贷款", "收入", "报销", "定金", "理财", "保险",
}

// BuiltinIncomeCategories are seeded once and cannot be deleted.
var BuiltinIncomeCategories = []string{
	"餐饮", "还款", "理财", "工资", "其他", "通讯", "收红包", "购物",
	"报销", "住房", "steam", "退款", "交通", "礼金", "基金", "医疗",
	"娱乐", "办公", "日用", "美容", "果蔬", "书籍", "借款", "红包",
	"股票", "旅行", "贷款",
}

// SeedData returns the default account and the builtin categories stamped
// with now. Category ids are dated at now with increasing offsets so they
// list in seed order.
func SeedData(now time.Time, currency string) (Account, []Category) {
	if currency == "" {
		currency = DefaultCurrency
	}
	acct := Account{
		ID:        NewID(),
		Name:      DefaultAccountName,
		Type:      AccountCash,
		Balance:   decimal.Zero,
		Currency:  currency,
		Icon:      "wallet",
		Color:     "green",
		CreatedAt: now,
		UpdatedAt: now,
	}

	cats := make([]Category, 0, len(BuiltinExpenseCategories)+len(BuiltinIncomeCategories))
	for _, name := range BuiltinExpenseCategories {
		cats = append(cats, builtin(now, len(cats), name, Expense))
	}
	for _, name := range BuiltinIncomeCategories {
		cats = append(cats, builtin(now, len(cats), name, Income))
	}
	return acct, cats
}

func builtin(now time.Time, offset int, name string, typ TransactionType) Category {
	return Category{
		ID:        NewDatedID(now, offset),
		Name:      name,
		Type:      typ,
		IsBuiltin: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
