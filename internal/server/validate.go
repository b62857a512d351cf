package server

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/ja"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	ja_translations "github.com/go-playground/validator/v10/translations/ja"
)

var (
	validate *validator.Validate
	trans    ut.Translator
)

// fieldNames are the labels used in validation messages.
var fieldNames = map[string]string{
	"name":               "名前",
	"grade":              "学年",
	"class_name":         "クラス",
	"title":              "テーマ名",
	"description":        "説明",
	"content":            "報告内容",
	"theme_id":           "テーマ",
	"ability_ids":        "能力",
	"detected_abilities": "分析結果の能力",
	"role":               "役割",
}

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	jp := ja.New()
	trans, _ = ut.New(jp, jp).GetTranslator("ja")
	if err := ja_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		panic(err)
	}

	override := func(tag, msg string) {
		err := validate.RegisterTranslation(tag, trans, func(t ut.Translator) error {
			return t.Add(tag, msg, true)
		}, func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fieldLabel(fe.Field()), fe.Param())
			return s
		})
		if err != nil {
			panic(err)
		}
	}
	override("required", "{0}は必須項目です。")
	override("max", "{0}は{1}文字以下で入力してください。")
	override("oneof", "{0}は[{1}]のいずれかにしてください。")
}

func fieldLabel(field string) string {
	if l, ok := fieldNames[field]; ok {
		return l
	}
	return field
}
