package mongodb

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestDuplicateIndex(t *testing.T) {
	Convey("DuplicateIndex", t, func() {
		dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{
			Code:    11000,
			Message: "E11000 duplicate key error collection: hihitutor.users index: idx_phone_active dup key: { phone: \"61234567\" }",
		}}}

		name, ok := DuplicateIndex(dup, "idx_email_active", "idx_phone_active")
		So(ok, ShouldBeTrue)
		So(name, ShouldEqual, "idx_phone_active")

		name, ok = DuplicateIndex(dup, "idx_user_code")
		So(ok, ShouldBeTrue)
		So(name, ShouldBeEmpty)

		_, ok = DuplicateIndex(errors.New("boom"), "idx_user_code")
		So(ok, ShouldBeFalse)

		So(IsNotFound(mongo.ErrNoDocuments), ShouldBeTrue)
	})
}
